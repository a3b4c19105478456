package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/middleware"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type analyticsService interface {
	PeriodSummary(ctx context.Context, period string, section *int) ([]models.PeriodSummary, bool, error)
	Leaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, bool, error)
	SystemMetrics() models.SystemMetrics
}

// AnalyticsHandler exposes dashboard-ready aggregates.
type AnalyticsHandler struct {
	analytics analyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// PeriodSummary godoc
// @Summary Period section summary
// @Tags Analytics
// @Produce json
// @Param period path string true "Period key"
// @Param section path int true "Section number"
// @Success 200 {object} response.Envelope
// @Router /analytics/periods/{period}/sections/{section} [get]
func (h *AnalyticsHandler) PeriodSummary(c *gin.Context) {
	section, err := intParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summaries, cacheHit, err := h.analytics.PeriodSummary(c.Request.Context(), c.Param("period"), &section)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, summaries)
}

// Leaderboard godoc
// @Summary Top balances
// @Tags Analytics
// @Produce json
// @Param period query string false "Period key"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /analytics/leaderboard [get]
func (h *AnalyticsHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		limit = parsed
	}
	start := time.Now()
	entries, cacheHit, err := h.analytics.Leaderboard(c.Request.Context(), c.Query("period"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, start, cacheHit, entries)
}

// System returns instrumentation metrics snapshots.
func (h *AnalyticsHandler) System(c *gin.Context) {
	h.respond(c, time.Now(), false, h.analytics.SystemMetrics())
}

func (h *AnalyticsHandler) respond(c *gin.Context, start time.Time, cacheHit bool, data interface{}) {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, data, nil, meta)
}
