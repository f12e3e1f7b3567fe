// Package http provides the inbound HTTP adapter of the gallery: the gallery
// API and the health endpoints, served from one listener.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/PixelPunkNFT/THE-FOOLS/internal/ports/inbound"
)

// RouteRegistrar adds routes to a mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080")
	Addr string

	Logger *slog.Logger

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ServerConfigDefaults returns a config with default values.
func ServerConfigDefaults() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		Logger:       slog.Default(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server serves the health endpoints plus any mounted routes.
//
// Health endpoints:
//   - /health/ready  - 200 once the first fetch cycle has finished
//   - /health/live   - 200 while no cycle is stuck loading
//   - /health        - combined status for monitoring
//
// All three return 503 once shuttingDown is set.
type Server struct {
	server       *http.Server
	mux          *http.ServeMux
	checker      inbound.HealthChecker
	shuttingDown *atomic.Bool
	logger       *slog.Logger
}

// NewServer creates a new server and mounts routes.
func NewServer(config ServerConfig, checker inbound.HealthChecker, shuttingDown *atomic.Bool, routes ...RouteRegistrar) *Server {
	defaults := ServerConfigDefaults()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if shuttingDown == nil {
		shuttingDown = new(atomic.Bool)
	}

	s := &Server{
		mux:          http.NewServeMux(),
		checker:      checker,
		shuttingDown: shuttingDown,
		logger:       config.Logger.With("component", "http-server"),
	}

	s.mux.HandleFunc("GET /health/ready", s.handleReady)
	s.mux.HandleFunc("GET /health/live", s.handleLive)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	for _, r := range routes {
		r.RegisterRoutes(s.mux)
	}

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      s.mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins listening in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("starting http server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server failed", "error", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"}, s.logger)
		return
	}
	if s.checker.IsReady() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}, s.logger)
	} else {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"}, s.logger)
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"}, s.logger)
		return
	}
	if s.checker.IsHealthy() {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"}, s.logger)
	} else {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"}, s.logger)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.shuttingDown.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "shutting_down",
			"ready":        false,
			"healthy":      false,
			"shuttingDown": true,
		}, s.logger)
		return
	}

	ready := s.checker.IsReady()
	healthy := s.checker.IsHealthy()
	status := "ok"
	statusCode := http.StatusOK
	if !ready || !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	respondJSON(w, statusCode, map[string]any{
		"status":       status,
		"ready":        ready,
		"healthy":      healthy,
		"shuttingDown": false,
	}, s.logger)
}
