package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type periodService interface {
	Create(ctx context.Context, req dto.UpsertPeriodRequest, actorID string) (*models.Period, error)
	Update(ctx context.Context, key string, req dto.UpsertPeriodRequest, actorID string) (*models.Period, error)
	Get(ctx context.Context, key string) (*models.Period, error)
	List(ctx context.Context) ([]models.Period, error)
}

// PeriodHandler manages grading periods.
type PeriodHandler struct {
	service periodService
}

// NewPeriodHandler builds a period handler.
func NewPeriodHandler(service periodService) *PeriodHandler {
	return &PeriodHandler{service: service}
}

// List godoc
// @Summary List periods
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Get godoc
// @Summary Get period
// @Tags Periods
// @Produce json
// @Param key path string true "Period key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/{key} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.UpsertPeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.UpsertPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid period payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Redefine period
// @Tags Periods
// @Accept json
// @Produce json
// @Param key path string true "Period key"
// @Param payload body dto.UpsertPeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/{key} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req dto.UpsertPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid period payload"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("key"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
