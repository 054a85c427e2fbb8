package patch

import (
	"regexp"
	"strings"
)

// ruleRe permissively matches "selector { body }" groupings in replacement
// text. This is intentionally not a CSS parser: nested rules and at-rules
// can mis-match, and callers depend on the permissive behavior.
var ruleRe = regexp.MustCompile(`(?s)([^{}]+)\{([^{}]*)\}`)

// applyRuleFallback is the structural fallback used when a block's search
// text is not found verbatim. Each rule-like grouping in replace is matched
// against a "selector { ... }" span in content; only the inner body is
// replaced, keeping the indentation style of the first non-blank body line.
// Returns false when no grouping matched anything.
func applyRuleFallback(content, replace string) (string, bool) {
	matches := ruleRe.FindAllStringSubmatch(replace, -1)
	if len(matches) == 0 {
		return content, false
	}

	changed := false
	for _, m := range matches {
		selector := strings.TrimSpace(m[1])
		body := m[2]
		if selector == "" {
			continue
		}
		if patched, ok := replaceRuleBody(content, selector, body); ok {
			content = patched
			changed = true
		}
	}
	return content, changed
}

// replaceRuleBody finds "selector { ... }" in content and swaps the inner
// body. The close brace is the next "}" after the open brace; nested
// blocks inside the body are not understood.
func replaceRuleBody(content, selector, newBody string) (string, bool) {
	selIdx := findSelector(content, selector)
	if selIdx == -1 {
		return content, false
	}
	openIdx := strings.Index(content[selIdx:], "{")
	if openIdx == -1 {
		return content, false
	}
	openIdx += selIdx
	closeIdx := strings.Index(content[openIdx:], "}")
	if closeIdx == -1 {
		return content, false
	}
	closeIdx += openIdx

	// An empty provided body keeps the existing declarations; the rule
	// still counts as matched.
	if strings.TrimSpace(newBody) == "" {
		return content, true
	}

	oldBody := content[openIdx+1 : closeIdx]
	indented := reindentBody(newBody, bodyIndent(oldBody))
	return content[:openIdx+1] + indented + content[closeIdx:], true
}

// findSelector locates selector followed (after optional whitespace) by an
// opening brace, so "body" does not match "tbody" by accident.
func findSelector(content, selector string) int {
	from := 0
	for {
		idx := strings.Index(content[from:], selector)
		if idx == -1 {
			return -1
		}
		idx += from

		// Must start at a boundary.
		if idx > 0 {
			prev := content[idx-1]
			if prev != '\n' && prev != ' ' && prev != '\t' && prev != '}' {
				from = idx + len(selector)
				continue
			}
		}

		rest := strings.TrimLeft(content[idx+len(selector):], " \t\n")
		if strings.HasPrefix(rest, "{") {
			return idx
		}
		from = idx + len(selector)
	}
}

// bodyIndent returns the leading whitespace of the first non-blank line of
// the original body, the indentation style new declarations adopt.
func bodyIndent(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	}
	return "  "
}

// reindentBody formats the replacement declarations one per line with the
// given indentation, preserving the surrounding newlines of a multi-line
// rule body.
func reindentBody(body, indent string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		b.WriteString(indent)
		b.WriteString(trimmed)
		b.WriteString("\n")
	}
	return b.String()
}
