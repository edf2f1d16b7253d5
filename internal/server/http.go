// Package server provides the HTTP surface of the site: server-rendered
// content pages, the search and form endpoints, and the pass-through
// auth/upload proxies.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gtahub/internal/cache"
	"gtahub/internal/cms"
	"gtahub/internal/content"
)

// Server wraps the Echo server.
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options.
type Config struct {
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   string // Max request body size (default: 6M, bounded by the avatar limit)
}

// New creates the HTTP server around the content service and the CMS
// client used for pass-through calls.
func New(svc *content.Service, client *cms.Client, ttls cache.TTLTable, log *slog.Logger, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true

	handler := NewHandler(svc, client, ttls, log)

	e.Renderer = NewRenderer()
	e.HTTPErrorHandler = handler.ErrorBoundary

	// Global middleware stack (order matters)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Error("request", "uri", v.URI, "status", v.Status, "error", v.Error)
			} else {
				log.Info("request", "uri", v.URI, "status", v.Status)
			}
			return nil
		},
	}))

	bodyLimit := "6M"
	if cfg != nil && cfg.BodySizeLimit != "" {
		bodyLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(bodyLimit))

	// Static assets (stylesheet and the thin client-side layer)
	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))

	// Pages
	e.GET("/", handler.Home)
	e.GET("/news/:slug", handler.Article)
	e.GET("/category/:slug", handler.Category)
	e.GET("/games", handler.Games)
	e.GET("/games/:slug", handler.Game)
	e.GET("/games/:slug/guides/:guide", handler.Guide)
	e.GET("/heists", handler.Heists)
	e.GET("/heists/:slug", handler.Heist)
	e.GET("/jobs/:slug", handler.Job)
	e.GET("/weekly", handler.Weekly)

	// JSON API
	e.GET("/api/search", handler.Search)
	e.POST("/api/comments", handler.SubmitComment)
	e.POST("/api/profile", handler.UpdateProfile)
	e.POST("/api/avatar", handler.UploadAvatar)

	// Auth pass-through
	e.POST("/api/auth/login", handler.AuthLogin)
	e.POST("/api/auth/register", handler.AuthRegister)
	e.POST("/api/auth/forgot", handler.AuthForgot)
	e.POST("/api/auth/reset", handler.AuthReset)

	// Operational
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		metricsPath := "/metrics"
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements http.Handler, allowing Server to be driven by
// httptest in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
