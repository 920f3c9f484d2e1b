package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"rent-stress/internal/api/models"
	"rent-stress/internal/config"
	"rent-stress/internal/scenario"
	"rent-stress/internal/store"
	"rent-stress/internal/stress"

	"github.com/gin-gonic/gin"
)

// RunStore is the subset of the run archive the handlers need.
type RunStore interface {
	Save(ctx context.Context, out *scenario.Outcome) (string, error)
	Get(ctx context.Context, id string) (*store.Run, error)
	List(ctx context.Context, preset string) ([]store.Run, error)
	Rows(ctx context.Context, id string) ([]stress.Row, error)
}

// StressHandler handles stress sweep requests
type StressHandler struct {
	cfg   *config.Config
	store RunStore
	cache *scenario.Cache
}

// NewStressHandler creates a new stress handler. runs may be nil, in which
// case sweeps are not archived and the archive endpoints report 503. cache
// may be nil to recompute every sweep.
func NewStressHandler(cfg *config.Config, runs RunStore, cache *scenario.Cache) *StressHandler {
	return &StressHandler{cfg: cfg, store: runs, cache: cache}
}

// RunStress handles POST /api/v1/stress
func (h *StressHandler) RunStress(c *gin.Context) {
	var req models.StressRequest
	// an empty body means "run the defaults"
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	out, hit, err := h.cache.Run(h.cfg, scenario.Request{Preset: req.Preset, BaseRate: req.BaseRate})
	if err != nil {
		respondError(c, err)
		return
	}
	if hit {
		log.Printf("StressHandler: cache hit for preset %s", out.Calibration.Name)
	}

	resp := buildStressResponse(out, req.IncludeRows)
	if h.store != nil {
		id, err := h.store.Save(c.Request.Context(), out)
		if err != nil {
			respondError(c, fmt.Errorf("archive run: %w", err))
			return
		}
		resp.ID = id
		log.Printf("StressHandler: archived run %s (preset %s, %d rows)", id, out.Calibration.Name, len(out.Table.Rows))
	}

	c.JSON(http.StatusOK, resp)
}

// ListRuns handles GET /api/v1/stress
func (h *StressHandler) ListRuns(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req models.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	runs, err := h.store.List(c.Request.Context(), req.Preset)
	if err != nil {
		respondError(c, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, models.RunsResponse{Runs: runs})
}

// GetRun handles GET /api/v1/stress/:id
func (h *StressHandler) GetRun(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRows handles GET /api/v1/stress/:id/rows
func (h *StressHandler) GetRows(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	var req models.RowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	rows, err := h.store.Rows(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	switch req.Format {
	case "", "json":
		c.JSON(http.StatusOK, models.RowsResponse{ID: id, Rows: rows})
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "stress_results__"+id+".csv"))
		c.Header("Content-Type", "text/csv")
		c.Status(http.StatusOK)
		if err := stress.WriteCSV(c.Writer, rows); err != nil {
			log.Printf("StressHandler: writing CSV for run %s: %v", id, err)
		}
	default:
		badRequest(c, fmt.Errorf("unsupported format %q (want json or csv)", req.Format))
	}
}

// BreakEven handles GET /api/v1/breakeven
func (h *StressHandler) BreakEven(c *gin.Context) {
	var req models.BreakEvenRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, _, err := h.cache.Run(h.cfg, scenario.Request{Preset: req.Preset, BaseRate: req.BaseRate})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.BreakEvenResponse{
		Preset:   out.Calibration.Name,
		Theta:    out.Table.Theta,
		Debt:     out.Table.Debt,
		BaseRate: out.BaseRate,
		Curve:    stress.BreakEvenCurve(out.Table),
	})
}

func (h *StressHandler) requireStore(c *gin.Context) bool {
	if h.store != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "STORE_DISABLED",
			Message: "Run archive is not configured. Set RUNS_DB to enable it.",
		},
	})
	return false
}

func buildStressResponse(out *scenario.Outcome, includeRows bool) models.StressResponse {
	t := out.Table
	resp := models.StressResponse{
		Status:       "completed",
		Preset:       out.Calibration.Name,
		ThetaSource:  out.Calibration.Encoding,
		Theta:        t.Theta,
		Debt:         t.Debt,
		BaseRate:     out.BaseRate,
		RateShocksBP: t.RateShocksBP,
		Occupancy:    t.Occupancy,
		Summary:      out.Summary,
	}
	if includeRows {
		resp.Rows = t.Rows
	}
	return resp
}
