package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/afcommunity/fieldmap/internal/api/middleware"
	v1 "github.com/afcommunity/fieldmap/internal/api/v1"
	"github.com/afcommunity/fieldmap/internal/logger"
	"github.com/afcommunity/fieldmap/internal/observability"
	"github.com/afcommunity/fieldmap/internal/panel"
)

// Server is the HTTP server behind the browser front end.
// It manages the Echo instance, middleware and all routes.
type Server struct {
	echo         *echo.Echo
	config       *Config
	logger       logger.Logger
	accessLogger logger.Logger

	mapPage       v1.MapPage
	communityPage v1.CommunityPage
	renderer      *panel.Renderer
	metrics       *observability.Metrics
	version       string

	apiController *v1.Controller

	mu        sync.Mutex
	listener  net.Listener
	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAccessLogger sets the per-request logger. It defaults to the "access"
// module, which the logging config can route to its own file.
func WithAccessLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.accessLogger = l
	}
}

// WithMetrics sets the metrics exposed on /metrics and recorded per request.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRenderer sets the renderer for directive text.
func WithRenderer(r *panel.Renderer) ServerOption {
	return func(s *Server) {
		s.renderer = r
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = v
	}
}

// New creates the server. Either page may be nil, in which case its routes
// answer 404.
func New(config *Config, mapPage v1.MapPage, communityPage v1.CommunityPage, opts ...ServerOption) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:        config,
		mapPage:       mapPage,
		communityPage: communityPage,
		startTime:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = GetLogger()
	}
	if s.accessLogger == nil {
		s.accessLogger = logger.Global().Module("access")
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.logger.Info("HTTP server initialized",
		logger.String("address", config.Listen),
		logger.Bool("metrics", config.Metrics),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())

	s.echo.Use(mw.NewRequestID(func() string {
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}))

	var rec mw.RequestRecorder
	if s.metrics != nil {
		rec = s.metrics.HTTP
	}
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.accessLogger, rec, func(c echo.Context) bool {
		return c.Path() == "/health" || c.Path() == "/metrics"
	}))

	s.echo.Use(mw.NewCORS(s.config.AllowedOrigins))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.config.Metrics && s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	s.apiController = v1.New(s.echo, s.mapPage, s.communityPage,
		v1.WithLogger(s.logger),
		v1.WithRenderer(s.renderer))

	s.logger.Debug("routes initialized",
		logger.Int("routes", len(s.echo.Routes())),
		logger.Bool("map_page", s.mapPage != nil),
		logger.Bool("community_page", s.communityPage != nil))
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.version,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Start binds the listen address and serves in a background goroutine.
// Binding errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Listen, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.echo.Listener = ln

	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logger.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", logger.String("address", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// APIController returns the v1 controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}
