// Package core provides the API chassis for RideWise. It builds a chi router
// that serves both a standard HTTP listener and AWS Lambda (through
// LambdaHandler), and applies the cross-cutting middleware before requests
// reach domain handlers.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ridewise/internal/config"
)

// Server holds the chassis dependencies. Domain handlers attach themselves
// through V1RouteRegistrars before MountRoutes is called.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator
	Metrics   MetricsCollector

	// HealthProbes are run by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are invoked inside the /v1 route group. main.go fills
	// this to avoid an import cycle between core and handlers.
	V1RouteRegistrars []func(chi.Router)

	// Closers are released in order by Shutdown (DB pool, KV store, MQTT).
	Closers []io.Closer

	router *chi.Mux
}

// NewServer validates required dependencies and prepares an empty router.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		Metrics:   NoopMetrics{},
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router exposes the chi.Mux for tests and route mounting.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown releases every registered Closer. All closers run even if one
// fails; the errors are joined.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	var errs []error
	for _, c := range s.Closers {
		if err := c.Close(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing resource", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("closing resources: %w", err)
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
