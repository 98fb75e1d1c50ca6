package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"threshold-lab/internal/calendar"
	"threshold-lab/internal/domain"
	"threshold-lab/internal/pipeline"
	"threshold-lab/internal/storage"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
	healthTimeout    = 2 * time.Second
)

// Handler serves run endpoints.
type Handler struct {
	study       domain.StudyConfig
	newRunner   RunnerFactory
	runStore    storage.RunStore
	ledgerStore storage.TradeLedgerStore
	equityStore storage.EquityCurveStore
	checks      map[string]HealthCheck
	logger      *zap.Logger
}

// Health reports liveness and the state of each configured backend.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	if len(h.checks) > 0 {
		components := make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				h.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
				components[name] = "down"
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			components[name] = "up"
		}
		body["components"] = components
	}
	c.JSON(status, body)
}

// CreateRun executes a study synchronously.
// POST /api/v1/runs
func (h *Handler) CreateRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	entries, err := req.domainEntries()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	study, err := req.Study.apply(h.study)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res, err := h.newRunner(study).Run(c.Request.Context(), entries)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoEntries) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "run failed"})
		return
	}

	c.JSON(http.StatusCreated, newRunResponse(res.Run))
}

// ListRuns returns recent runs, newest first.
// GET /api/v1/runs?limit=N
func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxListLimit)
	}

	runs, err := h.runStore.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list runs"})
		return
	}
	out := make([]runResponse, len(runs))
	for i, r := range runs {
		out[i] = newRunResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// GetRun returns one run summary.
// GET /api/v1/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newRunResponse(run))
}

// GetLedger returns the trade ledger of a run.
// GET /api/v1/runs/:id/ledger
func (h *Handler) GetLedger(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	rows, err := h.ledgerStore.GetByRunID(c.Request.Context(), run.RunID)
	if err != nil {
		h.logger.Error("load ledger failed", zap.String("run_id", run.RunID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load ledger"})
		return
	}
	out := make([]ledgerRowResponse, len(rows))
	for i, r := range rows {
		out[i] = newLedgerRowResponse(r)
	}
	c.JSON(http.StatusOK, out)
}

// GetEquity returns the equity curve of a run.
// GET /api/v1/runs/:id/equity
func (h *Handler) GetEquity(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	points, err := h.equityStore.GetByRunID(c.Request.Context(), run.RunID)
	if err != nil {
		h.logger.Error("load equity failed", zap.String("run_id", run.RunID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load equity curve"})
		return
	}
	out := make([]equityPointResponse, len(points))
	for i, p := range points {
		out[i] = equityPointResponse{Date: calendar.FormatDate(p.Date), Capital: p.Capital.String()}
	}
	c.JSON(http.StatusOK, out)
}

// loadRun fetches the run named by the :id parameter and writes the error
// response itself when it reports false.
func (h *Handler) loadRun(c *gin.Context) (*domain.RunSummary, bool) {
	id := c.Param("id")
	run, err := h.runStore.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: "run not found"})
			return nil, false
		}
		h.logger.Error("load run failed", zap.String("run_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to load run"})
		return nil, false
	}
	return run, true
}
