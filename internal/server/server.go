package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/at-ishikawa/storyteller/internal/inference"
	"github.com/at-ishikawa/storyteller/internal/story"
)

type Options struct {
	// ImagesDirectory is served under /images when set.
	ImagesDirectory    string
	AllowedOrigins     []string
	TranscriptTemplate string
	Recorder           story.Recorder
	// Gatherer is exposed on /metrics when set.
	Gatherer prometheus.Gatherer
	// SessionIdleTimeout and MaxSessions bound the sessions held in memory; zero disables a bound.
	SessionIdleTimeout time.Duration
	MaxSessions        int
}

type Server struct {
	Echo *echo.Echo

	generator inference.Client
	resolver  story.ImageResolver
	sessions  *registry
	options   Options
}

func NewServer(generator inference.Client, resolver story.ImageResolver, options Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
			}
			slog.Default().LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.Any("error", v.Error),
			)
			return nil
		},
	}))
	if len(options.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: options.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderContentType},
			MaxAge:       3600,
		}))
	}

	s := &Server{
		Echo:      e,
		generator: generator,
		resolver:  resolver,
		sessions:  newRegistry(options.MaxSessions, options.SessionIdleTimeout),
		options:   options,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	if s.options.Gatherer != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.options.Gatherer, promhttp.HandlerOpts{})))
	}
	if s.options.ImagesDirectory != "" {
		s.Echo.Static(imagesPath, s.options.ImagesDirectory)
	}

	api := s.Echo.Group("/api")
	api.GET("/options", s.handleGetOptions)
	api.POST("/sessions", s.handlePostSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.POST("/sessions/:id/start", s.handlePostStart)
	api.POST("/sessions/:id/choose", s.handlePostChoose)
	api.POST("/sessions/:id/reset", s.handlePostReset)
	api.GET("/sessions/:id/transcript", s.handleGetTranscript)
}

func (s *Server) Start(addr string) error {
	slog.Default().Info("Server listening", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Default().Info("Shutting down server...", "sessions", s.sessions.len())
	return s.Echo.Shutdown(ctx)
}
