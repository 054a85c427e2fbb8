package extract

import (
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/framework"
)

// stylesheetAliases are conventional names a generated page may use to
// reference its stylesheet. References are rewritten to the stylesheet that
// actually exists in the set.
var stylesheetAliases = []string{"style.css", "styles.css", "main.css", "index.css"}

// scriptAliases are the equivalent conventional names for the script file.
var scriptAliases = []string{"index.js", "script.js", "main.js", "app.js"}

// ParseSections splits text containing repeated "=== path ===" headers into
// an ordered FileSet.
//
// Content before the first header is attributed to the framework's entry
// file only when it visually resembles that file (starts with a root-tag
// token for HTML, an import or definition for Python, an opening brace for
// JSON); otherwise it is discarded. Duplicate paths are last-write-wins.
// An empty set means no headers were found and the caller must apply its
// single-file fallback.
func ParseSections(text string, fw framework.Framework) *FileSet {
	fs := NewFileSet()
	lines := strings.Split(text, "\n")

	currentPath := ""
	var current []string

	commit := func() {
		if currentPath == "" {
			preamble := strings.Join(current, "\n")
			if entry := fw.Spec().EntryFile; resemblesEntry(preamble, entry) {
				fs.Set(entry, stripSectionFences(preamble))
			}
			current = nil
			return
		}
		fs.Set(currentPath, stripSectionFences(strings.Join(current, "\n")))
		current = nil
	}

	sawHeader := false
	for _, line := range lines {
		if path, ok := sectionHeader(line); ok {
			commit()
			currentPath = path
			sawHeader = true
			continue
		}
		current = append(current, line)
	}
	commit()

	if !sawHeader {
		return NewFileSet()
	}
	return fs
}

// sectionHeader recognizes a line whose trimmed form is exactly three
// equals signs, whitespace, a path token, whitespace, three equals signs.
// The path token may not contain an equals sign.
func sectionHeader(line string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 3 || fields[0] != "===" || fields[2] != "===" {
		return "", false
	}
	path := fields[1]
	if path == "" || strings.Contains(path, "=") {
		return "", false
	}
	return path, true
}

// resemblesEntry reports whether preamble content looks like the entry
// file's own content rather than stray prose.
func resemblesEntry(content, entry string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(stripSectionFences(content)))
	if trimmed == "" {
		return false
	}
	switch {
	case strings.HasSuffix(entry, ".html"):
		return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
	case strings.HasSuffix(entry, ".py"):
		return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") ||
			strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "#")
	case strings.HasSuffix(entry, ".json"):
		return strings.HasPrefix(trimmed, "{")
	default:
		return false
	}
}

// stripSectionFences removes a single fence line at content start and a
// single fence line at content end, if present, plus surrounding blank
// space. Inner fences are untouched.
func stripSectionFences(content string) string {
	trimmed := strings.Trim(content, "\n")
	lines := strings.Split(trimmed, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// FormatSections is the inverse of ParseSections: it joins a FileSet back
// into the delimited multi-file text format. Round-tripping a formatted set
// through ParseSections reproduces the same mapping.
func FormatSections(fs *FileSet) string {
	var b strings.Builder
	for _, path := range fs.Paths() {
		content, _ := fs.Get(path)
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", path, content)
	}
	return b.String()
}

// NormalizeReferences rewrites cross-file references so the markup points at
// the stylesheet and script files that actually exist. Applies only when
// exactly one candidate of each kind is present, keeping the rewrite
// unambiguous. Run as a post-pass after parsing; ParseSections itself stays
// a faithful inverse of FormatSections.
func NormalizeReferences(fs *FileSet) {
	htmlPath, cssPath, jsPath := "", "", ""
	htmlCount, cssCount, jsCount := 0, 0, 0
	for _, p := range fs.Paths() {
		switch {
		case strings.HasSuffix(p, ".html"):
			htmlPath, htmlCount = p, htmlCount+1
		case strings.HasSuffix(p, ".css"):
			cssPath, cssCount = p, cssCount+1
		case strings.HasSuffix(p, ".js"):
			jsPath, jsCount = p, jsCount+1
		}
	}
	if htmlCount != 1 {
		return
	}

	content, _ := fs.Get(htmlPath)
	if cssCount == 1 {
		content = rewriteAliases(content, stylesheetAliases, cssPath)
	}
	if jsCount == 1 {
		content = rewriteAliases(content, scriptAliases, jsPath)
	}
	fs.Set(htmlPath, content)
}

func rewriteAliases(content string, aliases []string, actual string) string {
	for _, alias := range aliases {
		if alias == actual {
			continue
		}
		content = strings.ReplaceAll(content, alias, actual)
	}
	return content
}
