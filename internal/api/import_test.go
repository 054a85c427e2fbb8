package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/space"
	"github.com/sitesmith/sitesmith/internal/testutil"
)

func (f *fixture) importSpace(t *testing.T, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestImportSeedsSessionForFollowUps(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pageResponse)
	target := space.Target{Owner: "demo", Name: "old-landing"}
	f.space.Seed(target, map[string]string{
		"index.html": "<!DOCTYPE html><html><body><h1>Old</h1></body></html>",
	})

	rec := f.importSpace(t, `{"url":"https://huggingface.co/spaces/demo/old-landing"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		SessionID string   `json:"session_id"`
		SpaceID   string   `json:"space_id"`
		Framework string   `json:"framework"`
		Files     []string `json:"files"`
		Message   string   `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "demo/old-landing", payload.SpaceID)
	assert.Equal(t, "static-html", payload.Framework)
	assert.Equal(t, []string{"index.html"}, payload.Files)
	assert.Contains(t, payload.Message, "Imported https://huggingface.co/spaces/demo/old-landing")
	require.NotEmpty(t, payload.SessionID)

	// The imported files became conversation context.
	history, err := f.sessions.History(payload.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Contains(t, history[1].Content, "=== index.html ===")
	assert.Contains(t, history[1].Content, "<h1>Old</h1>")

	// The next turn edits the imported space instead of minting a new one.
	ask := f.ask(t, `{"prompt":"modernize the page","framework":"static-html"}`,
		map[string]string{"X-Session-ID": payload.SessionID})
	events := testutil.ParseSSE(t, ask.Body.String())
	deployed := testutil.FindSSE(events, "deploy-succeeded")
	require.NotNil(t, deployed)

	var result struct {
		SpaceID string `json:"space_id"`
		Created bool   `json:"created"`
	}
	require.NoError(t, json.Unmarshal([]byte(deployed.Data), &result))
	assert.Equal(t, "demo/old-landing", result.SpaceID)
	assert.False(t, result.Created, "imported space must be updated, not recreated")
}

func TestImportRejectsBadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t, pageResponse)

	rec := f.importSpace(t, `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "url or space_id required")

	rec = f.importSpace(t, `{"url":"https://example.com/no-space-here"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "url without a space reference")

	rec = f.importSpace(t, `{"space_id":"not a valid id"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "malformed space id")

	rec = f.importSpace(t, `{"space_id":"demo/ghost"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "missing space")
}
