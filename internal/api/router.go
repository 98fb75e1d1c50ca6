// Package api exposes studies over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"threshold-lab/internal/domain"
	"threshold-lab/internal/observability"
	"threshold-lab/internal/pipeline"
	"threshold-lab/internal/storage"
)

// RunnerFactory builds a runner for one study configuration.
type RunnerFactory func(study domain.StudyConfig) *pipeline.Runner

// HealthCheck probes one backend.
type HealthCheck func(ctx context.Context) error

// Options contains dependencies of the API.
type Options struct {
	Study       domain.StudyConfig // defaults for POST /api/v1/runs
	NewRunner   RunnerFactory
	RunStore    storage.RunStore
	LedgerStore storage.TradeLedgerStore
	EquityStore storage.EquityCurveStore
	Checks      map[string]HealthCheck // reported by GET /health
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewRouter wires routes and middleware.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &Handler{
		study:       opts.Study,
		newRunner:   opts.NewRunner,
		runStore:    opts.RunStore,
		ledgerStore: opts.LedgerStore,
		equityStore: opts.EquityStore,
		checks:      opts.Checks,
		logger:      opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(opts.Logger, opts.Metrics))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/runs", h.CreateRun)
		v1.GET("/runs", h.ListRuns)
		v1.GET("/runs/:id", h.GetRun)
		v1.GET("/runs/:id/ledger", h.GetLedger)
		v1.GET("/runs/:id/equity", h.GetEquity)
	}

	return router
}

// requestLogger logs every request and counts it by route template.
func requestLogger(logger *zap.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, strconv.Itoa(status))

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("server error", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("client error", fields...)
		default:
			logger.Debug("request completed", fields...)
		}
	}
}
