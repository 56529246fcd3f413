// Package server exposes the funding engine over a thin REST surface
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/fundcast/internal/common"
	"github.com/bobmcallan/fundcast/internal/interfaces"
)

// Server wraps the HTTP server and service references.
type Server struct {
	config  *common.Config
	funding interfaces.FundingService
	server  *http.Server
	logger  *common.Logger
}

// NewServer creates a new HTTP REST API server.
func NewServer(cfg *common.Config, funding interfaces.FundingService, logger *common.Logger) *Server {
	s := &Server{
		config:  cfg,
		funding: funding,
		logger:  logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
