package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/sitesmith/sitesmith/internal/framework"
)

// transformersImportRe matches a versioned @huggingface/transformers import
// specifier so any model-chosen version can be rewritten to the canonical
// pin.
var transformersImportRe = regexp.MustCompile(`@huggingface/transformers@[0-9][0-9A-Za-z.\-]*`)

// Process applies the framework-declared invariants to an extracted file
// set. Structural failures (missing required file, unrecoverable workflow
// JSON) are hard errors with the offending item named; they abort the
// deployment and are never retried.
func Process(fs *FileSet, fw framework.Framework, gen RequirementsGenerator) error {
	spec := fw.Spec()

	if missing := missingRequired(fs, spec.RequiredFiles); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFile, strings.Join(missing, ", "))
	}

	switch fw {
	case framework.ComfyUI:
		content, _ := fs.Get(spec.EntryFile)
		valid, err := RecoverWorkflowJSON(content)
		if err != nil {
			return err
		}
		fs.Set(spec.EntryFile, valid)

	case framework.TransformersJS:
		pinTransformersVersion(fs)

	case framework.Gradio, framework.Streamlit:
		ensureRequirements(fs, fw, gen)

	case framework.StaticHTML, framework.React, framework.Generic:
		// No structural rules beyond required files.
	}

	return nil
}

func missingRequired(fs *FileSet, required []string) []string {
	var missing []string
	for _, path := range required {
		content, ok := fs.Get(path)
		if !ok || strings.TrimSpace(content) == "" {
			missing = append(missing, path)
		}
	}
	return missing
}

// pinTransformersVersion rewrites every @huggingface/transformers import in
// markup and script files to the canonical version.
func pinTransformersVersion(fs *FileSet) {
	pinned := "@huggingface/transformers@" + framework.TransformersVersion
	for _, path := range fs.Paths() {
		if !strings.HasSuffix(path, ".js") && !strings.HasSuffix(path, ".html") {
			continue
		}
		content, _ := fs.Get(path)
		replaced := transformersImportRe.ReplaceAllString(content, pinned)
		// Unversioned specifiers get the pin appended.
		replaced = strings.ReplaceAll(replaced,
			"@huggingface/transformers\"", pinned+"\"")
		replaced = strings.ReplaceAll(replaced,
			"@huggingface/transformers'", pinned+"'")
		if replaced != content {
			fs.Set(path, replaced)
		}
	}
}

// workflowSchema is the structural shape of a ComfyUI workflow document:
// an object of node entries, each carrying a class_type and an inputs map.
var workflowSchema = &jsonschema.Schema{
	Type: "object",
	AdditionalProperties: &jsonschema.Schema{
		Type:     "object",
		Required: []string{"class_type"},
		Properties: map[string]*jsonschema.Schema{
			"class_type": {Type: "string"},
			"inputs":     {Type: "object"},
		},
	},
}

var (
	workflowResolveOnce sync.Once
	workflowResolved    *jsonschema.Resolved
	workflowResolveErr  error
)

// RecoverWorkflowJSON validates workflow output, salvaging a truncated tail
// when possible, and returns the pretty-printed document.
//
// Strategy, first match wins:
//  1. Parse the input as-is.
//  2. Cut everything after the last closing brace and parse again.
//  3. Give up with ErrInvalidWorkflow; this artifact cannot be partially
//     salvaged.
func RecoverWorkflowJSON(content string) (string, error) {
	doc, ok := tryParseWorkflow(content)
	if !ok {
		idx := strings.LastIndex(content, "}")
		if idx == -1 {
			return "", fmt.Errorf("%w: no JSON object found", ErrInvalidWorkflow)
		}
		doc, ok = tryParseWorkflow(content[:idx+1])
		if !ok {
			return "", fmt.Errorf("%w: unparseable after salvage", ErrInvalidWorkflow)
		}
	}

	if err := validateWorkflowShape(doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWorkflow, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// tryParseWorkflow is the expected-failure half of the two-step strategy:
// parse failure is a normal outcome, reported as a boolean, not an error.
func tryParseWorkflow(content string) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

func validateWorkflowShape(doc map[string]any) error {
	workflowResolveOnce.Do(func() {
		workflowResolved, workflowResolveErr = workflowSchema.Resolve(nil)
	})
	if workflowResolveErr != nil {
		return workflowResolveErr
	}
	if len(doc) == 0 {
		return fmt.Errorf("workflow has no nodes")
	}
	return workflowResolved.Validate(doc)
}
