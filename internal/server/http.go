// Package server runs the stub weather API over HTTP.
//
// Every request outside /__admin is resolved against the stub registry and
// answered with the rule's fixture, or with a 404 JSON error when no rule
// matches.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"path"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"weathercontract/internal/core"
	"weathercontract/internal/logging"
	"weathercontract/internal/stub"
)

// AdminPrefix is reserved for the stub's own endpoints.
const AdminPrefix = "/__admin"

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	done     chan error
}

// Config holds server configuration options
type Config struct {
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /__admin/metrics)
	JournalSize     int    // Requests kept in the journal (default: 256)
	Logger          *slog.Logger
}

// New creates a stub server serving rules from registry with bodies from fixtures.
func New(registry *stub.Registry, fixtures stub.FixtureSource, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := NewHandler(registry, fixtures, NewJournal(cfg.JournalSize), newMetrics(), logger)

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("stub request",
				"id", v.RequestID,
				"method", v.Method,
				"url", logging.RedactURL(c.Request().URL),
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	admin := e.Group(AdminPrefix)
	admin.GET("/health", handler.Health)
	admin.GET("/requests", handler.ListRequests)
	admin.DELETE("/requests", handler.ClearRequests)
	admin.GET("/rules", handler.ListRules)
	if cfg.MetricsEnabled {
		metricsPath := AdminPrefix + "/metrics"
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean("/" + cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(handler.metrics.handler()))
	}

	// Everything else is stubbed API surface.
	e.Any("/*", handler.Stub)

	return &Server{
		echo:    e,
		handler: handler,
		logger:  logger,
	}
}

// Start binds addr and serves in the background. Port 0 asks the OS for a
// free port; URL reports the one it picked. Start returns once the listener is
// bound, so requests can be sent immediately.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return core.NewConfigurationError(addr, "stub server already started", nil)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return core.NewConfigurationError(addr, "failed to bind stub server", err)
	}
	s.listener = ln
	s.echo.Listener = ln
	s.done = make(chan error, 1)

	go func() {
		err := s.echo.Start("")
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	s.logger.Info("stub server listening", "url", s.url(), "rules", s.handler.registry.Len())
	return nil
}

// URL returns the base URL of a started server, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url()
}

func (s *Server) url() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

// Journal returns the request journal.
func (s *Server) Journal() *Journal {
	return s.handler.journal
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	if done == nil {
		return nil
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
