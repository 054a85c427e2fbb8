// Package api exposes the generation service over HTTP.
//
// Endpoints:
//
//	POST /api/v1/ask                        generate and deploy (SSE stream)
//	POST /api/v1/import                     pull an existing space into the session
//	GET  /api/v1/sessions/{id}/deployments  session's deployment records
//	GET  /health                            liveness probe
//	GET  /ready                             readiness probe
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, logging, CORS
//   - ask.go: the generation endpoint
//   - import.go: the space import endpoint
//   - deployments.go: deployment listing
//   - health.go: probes
//   - sse.go: event stream writer
//   - response.go: JSON helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sitesmith/sitesmith/internal/deploy"
	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/log"
	"github.com/sitesmith/sitesmith/internal/prompts"
	"github.com/sitesmith/sitesmith/internal/session"
)

const (
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout prevents slowloris-style header dribbling.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout bounds reading the entire request.
	ReadTimeout = 30 * time.Second

	// IdleTimeout bounds keep-alive waits.
	IdleTimeout = 120 * time.Second

	// Generation streams can run for minutes; WriteTimeout must outlast
	// the slowest model turn.
	WriteTimeout = 10 * time.Minute
)

// Deps carries everything the server needs.
type Deps struct {
	Sessions    *session.Store
	Deployments *deploy.SessionStore
	Deployer    *deploy.Deployer
	Importer    *deploy.Importer
	Generator   llm.Generator
	Prompts     *prompts.Builder
	Manifests   *llm.ManifestGenerator

	// OwnerHint gates user-pasted space references during target
	// resolution; usually the configured hub owner.
	OwnerHint string

	// HubHost builds user-facing space links, e.g. "huggingface.co".
	HubHost string

	CORSOrigins []string
	Logger      log.Logger
}

// Server is the HTTP server.
type Server struct {
	mux  *http.ServeMux
	deps Deps
}

// NewServer registers all routes.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.NewNop()
	}
	s := &Server{mux: http.NewServeMux(), deps: deps}

	s.mux.HandleFunc("POST /api/v1/ask", s.handleAsk)
	s.mux.HandleFunc("POST /api/v1/import", s.handleImport)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}/deployments", s.handleDeployments)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ready", s.handleReady)

	return s
}

// Handler returns the mux with middleware applied, recovery outermost.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.deps.Logger),
		loggingMiddleware(s.deps.Logger),
		corsMiddleware(s.deps.CORSOrigins),
	)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.deps.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
