package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pfsim/portfolio-simulator/internal/simulation"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORS            bool
}

// Server wraps the Echo HTTP server around the simulation handler.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	logger simulation.Logger
}

// NewServer creates an HTTP server serving the simulation API.
func NewServer(handler *SimulationHandler, logger simulation.Logger, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORS:            true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if logger == nil {
		logger = simulation.NopLogger{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover())
	if cfg.CORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}

	return &Server{echo: e, config: cfg, logger: logger}
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Infof("http server listening on %s", addr)
	return s.echo.Start(addr)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Infof("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// WithHost sets the listen host.
func WithHost(host string) ServerOption { return func(c *ServerConfig) { c.Host = host } }

// WithPort sets the listen port.
func WithPort(port int) ServerOption { return func(c *ServerConfig) { c.Port = port } }

// WithCORS enables or disables CORS.
func WithCORS(enabled bool) ServerOption { return func(c *ServerConfig) { c.CORS = enabled } }
