package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type adjustmentService interface {
	Create(ctx context.Context, studentID string, req dto.CreateAdjustmentRequest, actorID string) (*models.CoinAdjustment, error)
	List(ctx context.Context, studentID string, includeInactive bool) ([]models.CoinAdjustment, error)
	Deactivate(ctx context.Context, id, actorID string) (*models.CoinAdjustment, error)
}

// AdjustmentHandler manages the manual coin ledger.
type AdjustmentHandler struct {
	service adjustmentService
}

// NewAdjustmentHandler builds an adjustment handler.
func NewAdjustmentHandler(service adjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{service: service}
}

// List godoc
// @Summary List adjustments
// @Tags Adjustments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param include_inactive query bool false "Include deactivated entries"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/adjustments [get]
func (h *AdjustmentHandler) List(c *gin.Context) {
	includeInactive := false
	if raw := c.Query("include_inactive"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid include_inactive parameter"))
			return
		}
		includeInactive = parsed
	}
	items, err := h.service.List(c.Request.Context(), c.Param("studentId"), includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Record an adjustment
// @Tags Adjustments
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.CreateAdjustmentRequest true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /students/{studentId}/adjustments [post]
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req dto.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid adjustment payload"))
		return
	}
	adj, err := h.service.Create(c.Request.Context(), c.Param("studentId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, adj)
}

// Deactivate godoc
// @Summary Deactivate an adjustment
// @Tags Adjustments
// @Produce json
// @Param id path string true "Adjustment ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /adjustments/{id}/deactivate [post]
func (h *AdjustmentHandler) Deactivate(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	adj, err := h.service.Deactivate(c.Request.Context(), id, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, adj, nil)
}
