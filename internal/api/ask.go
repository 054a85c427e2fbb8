package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/extract"
	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/session"
)

const sessionCookie = "sitesmith_session"

// askRequest is the generation request body.
type askRequest struct {
	Prompt    string `json:"prompt"`
	Framework string `json:"framework"`

	// SpaceID pins the deployment target explicitly ("owner/name").
	SpaceID string `json:"space_id,omitempty"`

	CommitMessage string `json:"commit_message,omitempty"`
}

// handleAsk runs one generation turn and streams it as SSE. The request
// stays open until deployment finishes; every outcome is an event, so
// the HTTP status is always 200 once streaming starts.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "missing_prompt", "prompt is required")
		return
	}
	fw, err := framework.Parse(req.Framework)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_framework", err.Error())
		return
	}

	sessionID := s.resolveSession(w, r)
	history, err := s.deps.Sessions.History(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session", err.Error())
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", err.Error())
		return
	}

	ctx := r.Context()
	system := s.deps.Prompts.System(ctx, fw)

	llmHistory := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		llmHistory = append(llmHistory, llm.Message{
			Role:    llm.Role(msg.Role),
			Content: msg.Content,
		})
	}

	raw, err := s.deps.Generator.Generate(ctx, llm.Request{
		System:  system,
		History: llmHistory,
		Prompt:  req.Prompt,
	}, func(ctx context.Context, text string) error {
		return sw.Write(ctx, eventChunk, map[string]string{"text": text})
	})
	if err != nil {
		// A dead or canceled stream never deploys.
		_ = sw.Write(ctx, eventError, map[string]string{"message": err.Error()})
		return
	}

	if reasoning := extract.Reasoning(raw); reasoning != "" {
		_ = sw.Write(ctx, eventReasoning, map[string]string{"text": reasoning})
	}

	deployHistory := make([]deploy.Message, 0, len(history))
	for _, msg := range history {
		deployHistory = append(deployHistory, deploy.Message{
			Role:    deploy.Role(msg.Role),
			Content: msg.Content,
		})
	}

	var manifests extract.RequirementsGenerator
	if s.deps.Manifests != nil {
		manifests = s.deps.Manifests
	}

	result, err := s.deps.Deployer.Deploy(ctx, deploy.Request{
		SessionID:      sessionID,
		Framework:      fw,
		Raw:            raw,
		Prompt:         req.Prompt,
		CommitMessage:  req.CommitMessage,
		ExplicitTarget: req.SpaceID,
		History:        deployHistory,
		OwnerHint:      s.deps.OwnerHint,
		Generator:      manifests,
	})

	assistantContent := raw
	if err != nil {
		s.deps.Logger.Warn("deployment failed",
			"session_id", sessionID, "framework", fw.String(), "error", err)
		_ = sw.Write(ctx, eventDeployFailed, map[string]string{"message": err.Error()})
	} else {
		if result.Patch.Skipped > 0 {
			_ = sw.Write(ctx, eventPatchPartial, map[string]any{
				"applied":     result.Patch.Applied,
				"skipped":     result.Patch.Skipped,
				"diagnostics": result.Patch.Diagnostics,
			})
		}
		_ = sw.Write(ctx, eventDeploySucceeded, map[string]any{
			"space_id": result.Target.ID(),
			"created":  result.Created,
			"files":    result.Uploaded,
			"message":  result.Message,
		})
		// The confirmation carries the marker future turns resolve by.
		assistantContent = raw + "\n\n" + result.Message
	}

	if appendErr := s.deps.Sessions.Append(sessionID,
		session.Message{Role: session.RoleUser, Content: req.Prompt},
		session.Message{Role: session.RoleAssistant, Content: assistantContent},
	); appendErr != nil {
		s.deps.Logger.Warn("history append failed", "session_id", sessionID, "error", appendErr)
	}

	_ = sw.Write(ctx, eventComplete, map[string]any{
		"session_id": sessionID,
		"deployed":   err == nil,
	})
}

// resolveSession picks the session: X-Session-ID header first, then the
// session cookie, else a fresh session. The chosen ID is echoed on both
// the header and the cookie.
func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get("X-Session-ID")
	if id == "" {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			id = cookie.Value
		}
	}
	if id == "" {
		id = s.deps.Sessions.Create()
	} else {
		s.deps.Sessions.Ensure(id)
	}

	w.Header().Set("X-Session-ID", id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
