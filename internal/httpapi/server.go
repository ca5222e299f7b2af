// Package httpapi exposes the research assistant over a JSON HTTP API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ferrolab/researchd/internal/assistant"
	"github.com/ferrolab/researchd/internal/logging"
	"github.com/ferrolab/researchd/internal/memory"
	"github.com/ferrolab/researchd/internal/personalize"
	"github.com/ferrolab/researchd/internal/research"
	"github.com/ferrolab/researchd/internal/search"
	"github.com/ferrolab/researchd/internal/store"
)

// userIDHeader names the requesting user; absent means "default".
const userIDHeader = "X-User-ID"

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Deps are the services the API fronts.
type Deps struct {
	Store     *store.Store
	Memory    *memory.Service
	Prefs     *personalize.Service
	Research  *research.Service
	Filter    *research.Filter
	Search    *search.Multi
	Assistant *assistant.Service
}

// Server is the JSON API server.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *logging.Logger
	config Config
}

// NewServer creates the HTTP server with middleware and routes wired.
func NewServer(cfg Config, deps Deps, logger *logging.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(userContextMiddleware)
	e.Use(NewHTTPMetrics(logger).Middleware())
	e.Use(requestLogMiddleware(logger))

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

// userContextMiddleware resolves the requesting user and threads it
// through the request context for handlers and log fields.
func userContextMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := c.Request().Header.Get(userIDHeader)
		if uid == "" {
			uid = "default"
		}
		ctx := logging.WithUserID(c.Request().Context(), uid)
		if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
			ctx = logging.WithRequestID(ctx, rid)
		}
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requestLogMiddleware(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")

	v1.POST("/research/queries", s.handleResearchQueries)
	v1.POST("/research/search", s.handleResearchSearch)
	v1.POST("/research/refine", s.handleResearchRefine)
	v1.POST("/research/complete", s.handleResearchComplete)
	v1.POST("/research/cancel", s.handleResearchCancel)
	v1.POST("/research/generate", s.handleResearchGenerate)

	v1.GET("/memory", s.handleMemoryList)
	v1.POST("/memory", s.handleMemoryAdd)
	v1.GET("/memory/search", s.handleMemorySearch)
	v1.GET("/preferences", s.handlePreferences)

	v1.GET("/contexts", s.handleContextList)
	v1.POST("/contexts", s.handleContextAdd)
	v1.DELETE("/contexts/:id", s.handleContextRemove)
	v1.DELETE("/contexts", s.handleContextClear)

	v1.GET("/usage/totals", s.handleUsageTotals)
	v1.GET("/usage/daily", s.handleUsageDaily)
	v1.GET("/usage/recent", s.handleUsageRecent)
	v1.GET("/usage/costs", s.handleUsageCosts)

	v1.GET("/sessions", s.handleSessionList)
	v1.GET("/sessions/:id", s.handleSessionDetail)
	v1.GET("/stats", s.handleStats)
	v1.GET("/history/search", s.handleHistorySearch)

	v1.GET("/assistant/greeting", s.handleAssistantGreeting)
	v1.GET("/assistant/defaults", s.handleAssistantDefaults)
	v1.GET("/assistant/suggestions", s.handleAssistantSuggestions)
	v1.POST("/assistant/feedback", s.handleAssistantFeedback)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// userID returns the requesting user resolved by the middleware.
func userID(c echo.Context) string {
	if uid := logging.UserIDFromContext(c.Request().Context()); uid != "" {
		return uid
	}
	return "default"
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
