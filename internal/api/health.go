package api

import "net/http"

// handleHealth is the liveness probe: the process is up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady is the readiness probe: serving requires a generator and
// a deployer; without either, every ask would fail.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Generator == nil || s.deps.Deployer == nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
