package extract

import (
	"strings"

	"github.com/sitesmith/sitesmith/internal/framework"
)

// Files converts raw model output into the validated file set for a target
// framework. This is the outward-facing face of the extraction engine:
//
//	raw text → fence/prose cleanup → section split → reference
//	normalization → framework post-processing
//
// Multi-file targets are parsed for "=== path ===" sections first; when no
// sections are present the whole output is treated as the entry file
// (single-file fallback). Validation errors from post-processing are
// returned as-is; they name the offending file or document.
func Files(raw string, fw framework.Framework, gen RequirementsGenerator) (*FileSet, error) {
	spec := fw.Spec()

	fs := ParseSections(raw, fw)
	if fs.Len() == 0 {
		cleaned := Clean(raw, fw)
		fs = NewFileSet()
		if strings.TrimSpace(cleaned) != "" {
			fs.Set(spec.EntryFile, cleaned)
		}
	} else {
		// Sections may still carry per-file prose when the model fenced
		// entire files; each section was already fence-stripped, so only
		// normalize cross-file references here.
		NormalizeReferences(fs)
	}

	if err := Process(fs, fw, gen); err != nil {
		return nil, err
	}
	return fs, nil
}
