package prompts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/prompts"
)

type stubDocs struct {
	text string
	err  error
}

func (s stubDocs) Docs(context.Context, framework.Framework) (string, error) {
	return s.text, s.err
}

func TestSystemCoversEveryFramework(t *testing.T) {
	t.Parallel()

	b, err := prompts.NewBuilder(nil, log.NewNop())
	require.NoError(t, err)

	for _, fw := range framework.All() {
		prompt := b.System(context.Background(), fw)
		assert.NotEmpty(t, prompt, "framework %s", fw)
		assert.NotContains(t, prompt, "{{", "unrendered template for %s", fw)
	}
}

func TestSystemPinsTransformersVersion(t *testing.T) {
	t.Parallel()

	b, err := prompts.NewBuilder(nil, log.NewNop())
	require.NoError(t, err)

	prompt := b.System(context.Background(), framework.TransformersJS)
	assert.Contains(t, prompt, framework.TransformersVersion)
	assert.Contains(t, prompt, "<<<<<<< SEARCH")
	assert.Contains(t, prompt, "=== index.js ===")
}

func TestSystemAppendsDocs(t *testing.T) {
	t.Parallel()

	b, err := prompts.NewBuilder(stubDocs{text: "Interfaces wrap a python function."}, log.NewNop())
	require.NoError(t, err)

	prompt := b.System(context.Background(), framework.Gradio)
	assert.Contains(t, prompt, "Interfaces wrap a python function.")
}

func TestSystemDegradesWhenDocsFail(t *testing.T) {
	t.Parallel()

	b, err := prompts.NewBuilder(stubDocs{err: errors.New("network down")}, log.NewNop())
	require.NoError(t, err)

	prompt := b.System(context.Background(), framework.Gradio)
	assert.Contains(t, prompt, "Gradio", "bare template still renders")
	assert.NotContains(t, prompt, "network down")
}
