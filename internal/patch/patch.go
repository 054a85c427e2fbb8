// Package patch applies targeted search/replace edits against existing file
// content. Follow-up edits arrive as marker-delimited blocks instead of full
// regenerated files:
//
//	<<<<<<< SEARCH
//	exact existing text
//	=======
//	replacement text
//	>>>>>>> REPLACE
//
// Blocks may be grouped under "=== path ===" headers when a response touches
// several files. The engine is deliberately forgiving: malformed patch text
// never raises; the worst case is the original content returned unmodified
// with diagnostics describing what was skipped.
package patch

import (
	"fmt"
	"strings"
)

// Block markers. A line whose trimmed form equals one of these delimits the
// block structure.
const (
	SearchMarker  = "<<<<<<< SEARCH"
	DividerMarker = "======="
	ReplaceMarker = ">>>>>>> REPLACE"
)

// AllFiles is the sentinel group path meaning "apply to every fetched
// file", used when patch text carries no file headers.
const AllFiles = "*"

// Block is one atomic text patch: replace the first occurrence of Search
// with Replace.
type Block struct {
	Search  string
	Replace string
}

// Group is a run of patch text scoped to one file (or AllFiles).
type Group struct {
	Path string
	Body string
}

// Report describes the outcome of one Apply call.
type Report struct {
	Applied     int
	Skipped     int
	Diagnostics []string
}

// Changed reports whether any block modified the content.
func (r Report) Changed() bool {
	return r.Applied > 0
}

// HasBlocks reports whether text contains all three block markers. This is
// a syntactic precondition check, not a grammar validation: the caller uses
// it to decide between patch mode and full-file redeployment.
func HasBlocks(text string) bool {
	return strings.Contains(text, SearchMarker) &&
		strings.Contains(text, DividerMarker) &&
		strings.Contains(text, ReplaceMarker)
}

// ParseFileGroups splits patch text into per-file groups using the same
// "=== path ===" header convention as multi-file generation output. When no
// headers are present the entire input forms a single group under AllFiles.
// A header with no following blocks yields a group whose body simply
// contains no blocks, a no-op rather than an error.
func ParseFileGroups(text string) []Group {
	lines := strings.Split(text, "\n")

	var groups []Group
	currentPath := AllFiles
	var current []string
	sawHeader := false

	commit := func() {
		body := strings.Join(current, "\n")
		current = nil
		// currentPath is AllFiles before the first header, so this
		// condition only drops a blank preamble ahead of the headers;
		// later AllFiles groups cannot occur once a header was seen.
		if currentPath == AllFiles && !sawHeader && strings.TrimSpace(body) == "" {
			return
		}
		groups = append(groups, Group{Path: currentPath, Body: body})
	}

	for _, line := range lines {
		if path, ok := groupHeader(line); ok {
			commit()
			currentPath = path
			sawHeader = true
			continue
		}
		current = append(current, line)
	}
	commit()

	if !sawHeader {
		return []Group{{Path: AllFiles, Body: text}}
	}
	return groups
}

func groupHeader(line string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 || fields[0] != "===" || fields[2] != "===" {
		return "", false
	}
	if fields[1] == "" || strings.Contains(fields[1], "=") {
		return "", false
	}
	return fields[1], true
}

// ParseBlocks scans text line-by-line for marker-delimited blocks, in
// order. A dangling incomplete block (missing its end marker) is still
// captured with whatever was scanned.
func ParseBlocks(text string) []Block {
	const (
		outside = iota
		inSearch
		inReplace
	)

	var blocks []Block
	state := outside
	var search, replace []string

	flush := func() {
		blocks = append(blocks, Block{
			Search:  strings.Join(search, "\n"),
			Replace: strings.Join(replace, "\n"),
		})
		search, replace = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		switch strings.TrimSpace(line) {
		case SearchMarker:
			if state != outside {
				flush() // previous block never terminated
			}
			state = inSearch
		case DividerMarker:
			if state == inSearch {
				state = inReplace
			} else if state == inReplace {
				replace = append(replace, line)
			}
		case ReplaceMarker:
			if state != outside {
				flush()
				state = outside
			}
		default:
			switch state {
			case inSearch:
				search = append(search, line)
			case inReplace:
				replace = append(replace, line)
			}
		}
	}
	if state != outside {
		flush()
	}
	return blocks
}

// Apply parses blocksText and applies each block in order against original.
//
// For each block the trimmed search text must occur verbatim in the working
// content; only its first occurrence is replaced. A block whose search text
// is not found falls back to structural CSS-rule matching on the replace
// text; if that also finds nothing the block is skipped with a diagnostic
// and later blocks still apply. Apply never fails: the worst case returns
// original unchanged.
func Apply(original, blocksText string) (string, Report) {
	var report Report
	content := original

	for i, block := range ParseBlocks(blocksText) {
		search := strings.TrimSpace(block.Search)
		replace := strings.TrimSpace(block.Replace)

		if search == "" {
			// An empty search would match at position zero and act as an
			// append; reject instead.
			report.Skipped++
			report.Diagnostics = append(report.Diagnostics,
				fmt.Sprintf("block %d: empty search text", i+1))
			continue
		}

		if idx := strings.Index(content, search); idx != -1 {
			content = content[:idx] + replace + content[idx+len(search):]
			report.Applied++
			continue
		}

		if patched, ok := applyRuleFallback(content, replace); ok {
			content = patched
			report.Applied++
			continue
		}

		report.Skipped++
		report.Diagnostics = append(report.Diagnostics,
			fmt.Sprintf("block %d: search text not found", i+1))
	}

	return content, report
}
