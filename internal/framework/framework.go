// Package framework defines the closed set of generation targets sitesmith
// can produce, together with the per-target conventions the extraction and
// deployment engines rely on.
//
// The set is deliberately a closed enum rather than free-form string tags:
// every switch over Framework is exhaustive, so adding a target forces every
// behavior decision to be made explicitly instead of falling through to a
// default branch.
package framework

import (
	"errors"
	"fmt"
	"strings"
)

// Framework identifies one supported generation target.
type Framework int

const (
	// Generic is the fallback target when the caller does not name one.
	Generic Framework = iota

	// StaticHTML is a single self-contained HTML page.
	StaticHTML

	// TransformersJS is a three-file browser ML app (markup, script,
	// stylesheet) built on @huggingface/transformers.
	TransformersJS

	// Gradio is a Python Gradio dashboard.
	Gradio

	// Streamlit is a Python Streamlit dashboard.
	Streamlit

	// React is a multi-file React application.
	React

	// ComfyUI is a ComfyUI workflow description, a single JSON document.
	ComfyUI
)

// ErrUnknownFramework is returned by Parse for unrecognized tags.
var ErrUnknownFramework = errors.New("unknown framework")

// TransformersVersion is the canonical version every generated
// TransformersJS app is pinned to, replacing whatever version the model
// happened to emit.
const TransformersVersion = "3.5.0"

// Spec describes the per-target conventions consumed by the extraction and
// deployment engines.
type Spec struct {
	// Tag is the canonical wire name of the framework.
	Tag string

	// EntryFile is the canonical first file of the target; prose appearing
	// before the first section header is attributed to it when it looks
	// like that file's content.
	EntryFile string

	// FenceLangs are the fence language tags (lowercase) accepted when
	// hunting for the framework's code block, first alias preferred.
	FenceLangs []string

	// SourceSuffixes are the file suffixes fetched and patched during an
	// incremental update. Empty means updates always redeploy wholesale.
	SourceSuffixes []string

	// RequiredFiles are files that must be present and non-empty after
	// extraction; any absence is a hard validation error.
	RequiredFiles []string

	// CriticalDep is the dependency that gets a minimum version injected
	// into a bare requirements manifest ("" = no pinning rule).
	CriticalDep string

	// CriticalDepMin is the version qualifier injected for CriticalDep.
	CriticalDepMin string

	// MultiFile reports whether output is expected as delimited sections.
	MultiFile bool

	// PythonFamily reports whether the target runs on a Python runtime
	// and therefore participates in requirements-manifest synthesis.
	PythonFamily bool
}

// Parse maps a wire tag to its Framework. Matching is case-insensitive.
func Parse(tag string) (Framework, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "generic", "auto":
		return Generic, nil
	case "static-html", "html":
		return StaticHTML, nil
	case "transformers-js", "transformers.js", "transformersjs":
		return TransformersJS, nil
	case "gradio":
		return Gradio, nil
	case "streamlit":
		return Streamlit, nil
	case "react":
		return React, nil
	case "comfyui", "comfy-ui":
		return ComfyUI, nil
	default:
		return Generic, fmt.Errorf("%w: %q", ErrUnknownFramework, tag)
	}
}

// String returns the canonical tag.
func (f Framework) String() string {
	return f.Spec().Tag
}

// Spec returns the conventions for f. The switch is exhaustive over the
// enum; an out-of-range value behaves as Generic.
func (f Framework) Spec() Spec {
	switch f {
	case StaticHTML:
		return Spec{
			Tag:           "static-html",
			EntryFile:     "index.html",
			FenceLangs:    []string{"html", "htm", "xhtml"},
			RequiredFiles: []string{"index.html"},
		}
	case TransformersJS:
		return Spec{
			Tag:            "transformers-js",
			EntryFile:      "index.html",
			FenceLangs:     []string{"html", "js", "javascript", "css"},
			SourceSuffixes: []string{".html", ".js", ".css", ".json"},
			RequiredFiles:  []string{"index.html", "index.js", "style.css"},
			CriticalDep:    "@huggingface/transformers",
			MultiFile:      true,
		}
	case Gradio:
		return Spec{
			Tag:            "gradio",
			EntryFile:      "app.py",
			FenceLangs:     []string{"python", "py"},
			SourceSuffixes: []string{".py", ".txt"},
			RequiredFiles:  []string{"app.py"},
			CriticalDep:    "gradio",
			CriticalDepMin: ">=4.0.0",
			MultiFile:      true,
			PythonFamily:   true,
		}
	case Streamlit:
		return Spec{
			Tag:            "streamlit",
			EntryFile:      "streamlit_app.py",
			FenceLangs:     []string{"python", "py"},
			SourceSuffixes: []string{".py", ".txt"},
			RequiredFiles:  []string{"streamlit_app.py"},
			CriticalDep:    "streamlit",
			CriticalDepMin: ">=1.30.0",
			MultiFile:      true,
			PythonFamily:   true,
		}
	case React:
		return Spec{
			Tag:            "react",
			EntryFile:      "src/App.jsx",
			FenceLangs:     []string{"jsx", "javascript", "js", "tsx"},
			SourceSuffixes: []string{".jsx", ".tsx", ".js", ".css", ".html", ".json"},
			RequiredFiles:  []string{"src/App.jsx"},
			MultiFile:      true,
		}
	case ComfyUI:
		return Spec{
			Tag:           "comfyui",
			EntryFile:     "workflow.json",
			FenceLangs:    []string{"json"},
			RequiredFiles: []string{"workflow.json"},
		}
	case Generic:
		fallthrough
	default:
		return Spec{
			Tag:        "generic",
			EntryFile:  "index.html",
			FenceLangs: []string{"html", "js", "javascript", "python", "py"},
		}
	}
}

// All returns every framework in declaration order. Used by tests and by
// the docs prefetcher.
func All() []Framework {
	return []Framework{Generic, StaticHTML, TransformersJS, Gradio, Streamlit, React, ComfyUI}
}
