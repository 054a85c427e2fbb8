package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/session"
	"github.com/sitesmith/sitesmith/internal/space"
)

// importRequest names an existing space to pull into the session, either
// as a full URL or as a bare "owner/name" identifier.
type importRequest struct {
	URL     string `json:"url,omitempty"`
	SpaceID string `json:"space_id,omitempty"`
}

type importResponse struct {
	SessionID string   `json:"session_id"`
	SpaceID   string   `json:"space_id"`
	Framework string   `json:"framework"`
	Files     []string `json:"files"`
	Message   string   `json:"message"`
}

// handleImport seeds the session from a deployed space: its files enter
// the conversation as context and its identity becomes the session's live
// deployment record, so follow-up turns edit it instead of creating a
// fresh space.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	var target space.Target
	switch {
	case req.URL != "":
		parsed, ok := deploy.ParseSpaceURL(req.URL)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_url", "no space reference in url")
			return
		}
		target = parsed
	case req.SpaceID != "":
		parsed, err := space.ParseTarget(req.SpaceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_space_id", err.Error())
			return
		}
		target = parsed
	default:
		writeError(w, http.StatusBadRequest, "missing_source", "url or space_id is required")
		return
	}

	if s.deps.Importer == nil {
		writeError(w, http.StatusServiceUnavailable, "import_unavailable", "importer not configured")
		return
	}

	sessionID := s.resolveSession(w, r)

	imp, err := s.deps.Importer.ImportSpace(r.Context(), sessionID, target)
	if err != nil {
		if errors.Is(err, space.ErrNotFound) {
			writeError(w, http.StatusNotFound, "space_not_found", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "import_failed", err.Error())
		return
	}

	// The imported files enter history so the model sees the current
	// state, and the confirmation carries the space URL so resolution
	// also works from history alone.
	message := fmt.Sprintf("Imported https://%s/spaces/%s", s.deps.HubHost, target.ID())
	if appendErr := s.deps.Sessions.Append(sessionID,
		session.Message{Role: session.RoleUser, Content: message},
		session.Message{Role: session.RoleAssistant, Content: "Current project files:\n\n" + imp.Code},
	); appendErr != nil {
		s.deps.Logger.Warn("history append failed", "session_id", sessionID, "error", appendErr)
	}

	writeJSON(w, http.StatusOK, importResponse{
		SessionID: sessionID,
		SpaceID:   target.ID(),
		Framework: imp.Framework.String(),
		Files:     imp.Files.Paths(),
		Message:   message,
	})
}
