package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps the echo instance serving the registry API.
type Server struct {
	echo     *echo.Echo
	logger   *zap.Logger
	endpoint string
}

// NewServer constructs the HTTP server with standard middleware installed.
func NewServer(port int, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	return &Server{
		echo:     e,
		logger:   logger,
		endpoint: fmt.Sprintf(":%d", port),
	}
}

// RegisterRoutes mounts the registry API, the health probe and the metrics
// endpoint.
func (s *Server) RegisterRoutes(h *RegistryHandler, gatherer prometheus.Gatherer) {
	s.echo.GET("/api/companies/search", h.SearchCompanies)
	s.echo.GET("/api/companies/fts", h.QuickSearch)
	s.echo.GET("/api/companies/:cin", h.GetCompany)
	s.echo.GET("/health", h.Health)
	s.echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	))
}

// Start runs the HTTP server, blocking until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.endpoint))
	if err := s.echo.Start(s.endpoint); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Server stopped")
}
