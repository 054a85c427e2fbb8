package api

import (
	"net/http"
	"time"
)

// deploymentEntry is one deployment record on the wire.
type deploymentEntry struct {
	SpaceID   string    `json:"space_id"`
	Framework string    `json:"framework"`
	At        time.Time `json:"at"`
}

// handleDeployments lists what a session has deployed, oldest first.
func (s *Server) handleDeployments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.deps.Sessions.Exists(id) {
		writeError(w, http.StatusNotFound, "unknown_session", "no such session")
		return
	}

	records := s.deps.Deployments.All(id)
	entries := make([]deploymentEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, deploymentEntry{
			SpaceID:   rec.Target.ID(),
			Framework: rec.Framework.String(),
			At:        rec.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"deployments": entries})
}
