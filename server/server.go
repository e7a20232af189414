// Package server exposes the publishing orchestrator over HTTP: a JSON API
// for job submission and inspection, and a WebSocket endpoint streaming live
// job status updates to each owner's subscribers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crosscast/crosscast/config"
	"github.com/crosscast/crosscast/errors"
	"github.com/crosscast/crosscast/hub"
	"github.com/crosscast/crosscast/publish"
	"github.com/crosscast/crosscast/quota"
)

// Server wires the orchestrator, quota tracker, and broadcast hub behind an
// HTTP listener.
type Server struct {
	cfg          *config.Config
	hub          *hub.Hub
	orchestrator *publish.Orchestrator
	tracker      *quota.Tracker
	logger       *zap.SugaredLogger

	mux        *http.ServeMux
	httpServer *http.Server
}

// NewServer creates the HTTP server around an already-constructed pipeline
func NewServer(cfg *config.Config, orchestrator *publish.Orchestrator, tracker *quota.Tracker, h *hub.Hub, logger *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:          cfg,
		hub:          h,
		orchestrator: orchestrator,
		tracker:      tracker,
		logger:       logger,
		mux:          http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJob)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/calendar", s.handleCalendar)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/quota", s.handleQuota)
}

// Handler returns the route table, for tests that mount it on httptest
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving on the configured port. Blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// Shutdown drains the HTTP listener
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"active_jobs": s.orchestrator.ActiveCount(),
	})
}

// checkOrigin validates WebSocket origins against the configured allow list.
// Requests without an Origin header (CLI clients, tests) are allowed.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		return strings.HasPrefix(origin, "http://localhost") ||
			strings.HasPrefix(origin, "https://localhost")
	}
	for _, a := range allowed {
		if strings.HasPrefix(origin, a) {
			return true
		}
	}
	return false
}
