package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/testutil"
)

func newGenerator(t *testing.T, mock *testutil.MockModel, retry llm.RetryConfig) *llm.GenkitGenerator {
	t.Helper()
	g := genkit.Init(context.Background())
	require.NotNil(t, g)
	mock.Register(g)
	return llm.NewGenkitGenerator(g, llm.GenkitConfig{
		ModelName: testutil.MockModelName,
		Retry:     retry,
	}, log.NewNop())
}

func fastRetry() llm.RetryConfig {
	return llm.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestGenerateStreamsAndReturnsFullText(t *testing.T) {
	response := "```html\n<html><body>a page that is long enough to chunk</body></html>\n```"
	mock := testutil.NewMockModel(response)
	gen := newGenerator(t, mock, fastRetry())

	var streamed strings.Builder
	text, err := gen.Generate(context.Background(), llm.Request{
		System: "you build pages",
		Prompt: "build a page",
	}, func(_ context.Context, chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, response, text)
	assert.Equal(t, response, streamed.String(), "stream must accumulate to the final text")
}

func TestGenerateCarriesHistory(t *testing.T) {
	mock := testutil.NewMockModel("ok")
	gen := newGenerator(t, mock, fastRetry())

	_, err := gen.Generate(context.Background(), llm.Request{
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "make a page"},
			{Role: llm.RoleAssistant, Content: "done"},
		},
		Prompt: "now make the header red",
	}, nil)
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "now make the header red", calls[0])
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	mock := testutil.NewMockModel("recovered")
	mock.FailNext(errors.New("429 rate limit exceeded"))
	gen := newGenerator(t, mock, fastRetry())

	text, err := gen.Generate(context.Background(), llm.Request{Prompt: "hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
}

func TestGenerateDoesNotRetryPermanentFailures(t *testing.T) {
	mock := testutil.NewMockModel("unreachable")
	mock.FailNext(errors.New("401 invalid api key"))
	gen := newGenerator(t, mock, fastRetry())

	_, err := gen.Generate(context.Background(), llm.Request{Prompt: "hello"}, nil)
	require.Error(t, err)
	assert.Empty(t, mock.Calls(), "no successful generation should have happened")
}

func TestGenerateStreamAbortStopsGeneration(t *testing.T) {
	mock := testutil.NewMockModel(strings.Repeat("long response text ", 20))
	gen := newGenerator(t, mock, fastRetry())

	boom := errors.New("client went away")
	_, err := gen.Generate(context.Background(), llm.Request{Prompt: "hello"},
		func(context.Context, string) error { return boom })
	require.Error(t, err)
}
