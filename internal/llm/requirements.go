package llm

import (
	"context"
	"fmt"
	"strings"
)

// manifestSystemPrompt keeps the model on task: the reply must be the
// manifest body and nothing else, since it is uploaded verbatim.
const manifestSystemPrompt = `You generate Python requirements.txt files.
Reply with ONLY the file content: one package per line, no code fences,
no commentary. Include every third-party package the source imports.`

// ManifestGenerator derives requirements manifests from entry-file
// source. It satisfies the extraction pipeline's generator hook.
type ManifestGenerator struct {
	gen Generator
}

// NewManifestGenerator wraps gen.
func NewManifestGenerator(gen Generator) *ManifestGenerator {
	return &ManifestGenerator{gen: gen}
}

// GenerateRequirements asks the model for a manifest covering the given
// source and its detected top-level imports. The reply is stripped of
// fences in case the model ignores the format instruction.
func (m *ManifestGenerator) GenerateRequirements(ctx context.Context, entrySource string, imports []string) (string, error) {
	var b strings.Builder
	b.WriteString("Write a requirements.txt for this application.\n")
	if len(imports) > 0 {
		fmt.Fprintf(&b, "Detected third-party imports: %s\n", strings.Join(imports, ", "))
	}
	b.WriteString("\nSource:\n")
	b.WriteString(entrySource)

	text, err := m.gen.Generate(ctx, Request{
		System: manifestSystemPrompt,
		Prompt: b.String(),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("generate manifest: %w", err)
	}
	return stripFences(text), nil
}

// stripFences removes a single wrapping code fence, tolerating a
// language tag on the opening line.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
