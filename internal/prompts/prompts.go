// Package prompts assembles per-framework system prompts. Each framework
// gets an embedded template describing the output contract the extraction
// pipeline expects; fetched documentation is appended when available.
package prompts

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DocsSource supplies documentation text for a framework. Empty text
// with a nil error means no documentation exists.
type DocsSource interface {
	Docs(ctx context.Context, fw framework.Framework) (string, error)
}

// Builder renders system prompts.
type Builder struct {
	docs      DocsSource
	templates *template.Template
	logger    log.Logger

	// maxDocsChars caps appended documentation so a verbose crawl cannot
	// crowd out the instructions.
	maxDocsChars int
}

// NewBuilder parses the embedded templates. docs may be nil, in which
// case prompts carry no documentation context.
func NewBuilder(docs DocsSource, logger log.Logger) (*Builder, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse prompt templates: %w", err)
	}
	return &Builder{
		docs:         docs,
		templates:    tmpl,
		logger:       logger,
		maxDocsChars: 12000,
	}, nil
}

// templateData is what each framework template renders against.
type templateData struct {
	Tag                 string
	EntryFile           string
	RequiredFiles       []string
	TransformersVersion string
	Docs                string
}

// System renders the system prompt for fw. Documentation failures
// degrade to the bare template; generation always proceeds.
func (b *Builder) System(ctx context.Context, fw framework.Framework) string {
	spec := fw.Spec()

	var docsText string
	if b.docs != nil {
		text, err := b.docs.Docs(ctx, fw)
		if err != nil {
			b.logger.Warn("documentation unavailable, using bare prompt",
				"framework", spec.Tag, "error", err)
		} else if len(text) > b.maxDocsChars {
			docsText = text[:b.maxDocsChars]
		} else {
			docsText = text
		}
	}

	var sb strings.Builder
	err := b.templates.ExecuteTemplate(&sb, spec.Tag+".tmpl", templateData{
		Tag:                 spec.Tag,
		EntryFile:           spec.EntryFile,
		RequiredFiles:       spec.RequiredFiles,
		TransformersVersion: framework.TransformersVersion,
		Docs:                docsText,
	})
	if err != nil {
		// Every enum member has a template; this only fires if the embed
		// set and the enum drift apart, which the tests pin down.
		b.logger.Error("prompt template missing", "framework", spec.Tag, "error", err)
		return fallbackPrompt(spec)
	}
	return sb.String()
}

func fallbackPrompt(spec framework.Spec) string {
	return fmt.Sprintf("You are an expert web developer. Produce a complete, working %s application. Output only code.", spec.Tag)
}
