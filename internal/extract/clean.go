package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sitesmith/sitesmith/internal/framework"
)

// safetyFloor is the minimum length a cleaned artifact must keep. Shorter
// results mean the cleanup over-trimmed, so the original input wins.
const safetyFloor = 50

// trailingHTMLSlack is how many characters of prose may follow the last
// closing root tag before the tail is truncated.
const trailingHTMLSlack = 100

// trailingScriptSlack is how many lines may follow the last executable line
// of a script before the tail is truncated.
const trailingScriptSlack = 5

// explanatoryOpeners are line prefixes (lowercase) that mark leading prose
// the model wrapped around the code. Matched case-insensitively.
var explanatoryOpeners = []string{
	"here",
	"this",
	"the above",
	"note:",
	"explanation:",
	"to use",
	"usage:",
	"instructions:",
}

// Clean strips markdown fencing and surrounding prose from raw model output,
// returning a best-effort "just the code" string for single-file targets.
//
// The cascade is strictly ordered; first match wins:
//  1. Structured targets (ComfyUI) that already parse as JSON are returned
//     unmodified.
//  2. The first fence tagged with one of the framework's languages replaces
//     the working text.
//  3. Leading explanatory lines are dropped up to the first real code line.
//  4. Framework-specific trailing prose is truncated.
//
// Clean never fails: if the result falls under the safety floor, the
// original input is returned unchanged.
func Clean(raw string, fw framework.Framework) string {
	if fw == framework.ComfyUI {
		if json.Valid([]byte(raw)) {
			return raw
		}
	}

	spec := fw.Spec()
	text := raw

	if inner, ok := firstTaggedFence(text, spec.FenceLangs); ok {
		text = inner
	}

	text = stripLeadingProse(text)

	switch fw {
	case framework.StaticHTML, framework.TransformersJS, framework.React, framework.Generic:
		text = trimTrailingHTML(text)
	case framework.Gradio, framework.Streamlit:
		text = trimTrailingScript(text)
	case framework.ComfyUI:
		// Salvage happens in the workflow post-processor.
	}

	if len(strings.TrimSpace(text)) <= safetyFloor {
		return raw
	}
	return text
}

// firstTaggedFence returns the inner content of the first ```lang fence
// whose tag matches one of langs (case-insensitive).
func firstTaggedFence(text string, langs []string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		tag, ok := fenceTag(line)
		if !ok || !langMatches(tag, langs) {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				return strings.Join(lines[i+1:j], "\n"), true
			}
		}
		// Unterminated fence: take everything after the opener.
		return strings.Join(lines[i+1:], "\n"), true
	}
	return "", false
}

// fenceTag extracts the language tag from a fence opener line.
func fenceTag(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	tag := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	if tag == "" {
		return "", false
	}
	return strings.ToLower(tag), true
}

func langMatches(tag string, langs []string) bool {
	for _, l := range langs {
		if tag == l {
			return true
		}
	}
	return false
}

// stripLeadingProse drops leading explanatory lines until the first
// non-empty, non-comment line. Comment lines in the prefix are kept;
// everything after the first real line is kept verbatim.
func stripLeadingProse(text string) string {
	lines := strings.Split(text, "\n")
	var kept []string
	stripping := true

	for _, line := range lines {
		if !stripping {
			kept = append(kept, line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", isExplanatoryOpener(trimmed), isSectionDelimiter(trimmed):
			// dropped
		case isCommentLine(trimmed):
			kept = append(kept, line)
		default:
			stripping = false
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func isExplanatoryOpener(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	for _, opener := range explanatoryOpeners {
		if strings.HasPrefix(lower, opener) {
			return true
		}
	}
	return false
}

// isSectionDelimiter reports whether the line is a bare run of delimiter
// characters ("---", "===", "***").
func isSectionDelimiter(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	c := trimmed[0]
	if c != '-' && c != '=' && c != '*' {
		return false
	}
	for i := 1; i < len(trimmed); i++ {
		if trimmed[i] != c {
			return false
		}
	}
	return true
}

func isCommentLine(trimmed string) bool {
	for _, prefix := range []string{"#", "//", "<!--", "/*", "*", "--"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// trimTrailingHTML truncates prose after the last closing root tag when it
// exceeds the slack allowance.
func trimTrailingHTML(text string) string {
	idx := strings.LastIndex(strings.ToLower(text), "</html>")
	if idx == -1 {
		return text
	}
	end := idx + len("</html>")
	if len(text)-end > trailingHTMLSlack {
		return text[:end]
	}
	return text
}

// trimTrailingScript truncates lines after the last executable-looking line
// when they exceed the slack allowance. A line counts as executable when it
// is non-blank and not a comment or docstring delimiter.
func trimTrailingScript(text string) string {
	lines := strings.Split(text, "\n")
	last := -1
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			continue
		}
		last = i
		break
	}
	if last == -1 {
		return text
	}
	if len(lines)-1-last > trailingScriptSlack {
		return strings.Join(lines[:last+1], "\n")
	}
	return text
}

var thinkSpanRe = regexp.MustCompile(`(?is)<think>(.*?)</think>`)

// Reasoning extracts the model's free-text reasoning from raw output.
//
// A think span wins outright. Otherwise every run of prose outside fenced
// code blocks longer than 10 characters (after trimming) is collected in
// order, joined with blank lines. An empty result is valid.
func Reasoning(raw string) string {
	if m := thinkSpanRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}

	var runs []string
	var current []string
	inFence := false

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if len(joined) > 10 {
			runs = append(runs, joined)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if !inFence {
				flush()
			}
			inFence = !inFence
			continue
		}
		if !inFence {
			current = append(current, line)
		}
	}
	flush()

	return strings.Join(runs, "\n\n")
}
