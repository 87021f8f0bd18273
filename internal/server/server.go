// Package server exposes a workspace over a JSON HTTP API built on gin.
//
// All routes live under /v1 except /health and /metrics. Domain errors map
// to status codes: validation 400, rename collision 409, no path 404 and a
// history entry whose endpoints are gone 410.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imyousuf/waypoint/internal/metrics"
	"github.com/imyousuf/waypoint/internal/workspace"
)

// Config configures New.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080".
	Addr string
	// Version is reported by /health.
	Version string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Gatherer serves /metrics when non-nil.
	Gatherer prometheus.Gatherer
	// Metrics counts requests when non-nil.
	Metrics *metrics.Recorder
}

// RegisterRoutes mounts the API on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/graph", h.HandleGetGraph)
	rg.GET("/graph/export", h.HandleExportGraph)
	rg.POST("/graph/import", h.HandleImportGraph)
	rg.POST("/graph/sample", h.HandleLoadSample)
	rg.DELETE("/graph", h.HandleClearGraph)

	rg.POST("/nodes", h.HandleAddNode)
	rg.PATCH("/nodes/:id", h.HandleUpdateNode)
	rg.DELETE("/nodes/:id", h.HandleRemoveNode)

	rg.POST("/edges", h.HandleAddEdge)
	rg.PATCH("/edges", h.HandleUpdateEdge)
	rg.DELETE("/edges", h.HandleRemoveEdge)

	rg.POST("/path", h.HandleFindPath)

	rg.GET("/history", h.HandleListHistory)
	rg.DELETE("/history", h.HandleClearHistory)
	rg.DELETE("/history/:id", h.HandleRemoveHistory)
	rg.POST("/history/:id/replay", h.HandleReplayHistory)
}

// NewRouter builds the gin engine for ws.
func NewRouter(ws *workspace.Workspace, cfg Config) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(cfg.Logger, cfg.Metrics))

	h := NewHandlers(ws, cfg.Logger, cfg.Version)
	router.GET("/health", h.HandleHealth)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	RegisterRoutes(router.Group("/v1"), h)
	return router
}

// requestLog logs every request at debug level and counts it.
func requestLog(logger *slog.Logger, rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		rec.HTTPRequest(route, strconv.Itoa(status))
		logger.Debug("http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"elapsed", time.Since(start),
			"request_id", c.Writer.Header().Get(requestIDHeader))
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, ws *workspace.Workspace, cfg Config) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(ws, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		cfg.Logger.Info("api listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg.Logger.Info("api shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
