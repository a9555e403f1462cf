// Package server provides the HTTP + WebSocket status surface: health,
// latest scan, lifetime counters, persisted history, and a live scan stream.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/dexhunter/internal/server/handler"
	"github.com/alanyoungcy/dexhunter/internal/server/ws"
)

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	History   *handler.HistoryHandler
	Snapshots *handler.SnapshotsHandler
}

// Server is the read-only status API for a running bot instance.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered.
func NewServer(port int, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/stats", handlers.Status.GetStats)
	mux.HandleFunc("GET /api/scans/latest", handlers.Status.GetLatestScan)
	mux.HandleFunc("GET /api/scans", handlers.History.ListScans)
	mux.HandleFunc("GET /api/executions", handlers.History.ListExecutions)
	mux.HandleFunc("GET /api/snapshots", handlers.Snapshots.ListSnapshots)
	mux.HandleFunc("GET /api/snapshots/{date}/{name}", handlers.Snapshots.GetSnapshot)

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	return s.httpServer.Shutdown(ctx)
}
