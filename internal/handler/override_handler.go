package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type overrideService interface {
	Upsert(ctx context.Context, studentID string, req dto.UpsertOverrideRequest, actorID string) (*models.Override, error)
	List(ctx context.Context, studentID string) ([]models.Override, error)
	Delete(ctx context.Context, studentID string, dayNumber int, actorID string) error
}

// OverrideHandler manages administrator overrides.
type OverrideHandler struct {
	service overrideService
}

// NewOverrideHandler builds an override handler.
func NewOverrideHandler(service overrideService) *OverrideHandler {
	return &OverrideHandler{service: service}
}

// List godoc
// @Summary List overrides
// @Tags Overrides
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/overrides [get]
func (h *OverrideHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Upsert godoc
// @Summary Create or replace an override
// @Tags Overrides
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.UpsertOverrideRequest true "Override payload"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/overrides [put]
func (h *OverrideHandler) Upsert(c *gin.Context) {
	var req dto.UpsertOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid override payload"))
		return
	}
	override, err := h.service.Upsert(c.Request.Context(), c.Param("studentId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, override, nil)
}

// Delete godoc
// @Summary Remove an override
// @Tags Overrides
// @Param studentId path string true "Student ID"
// @Param day path int true "Day number"
// @Success 204
// @Router /students/{studentId}/overrides/{day} [delete]
func (h *OverrideHandler) Delete(c *gin.Context) {
	day, err := intParam(c, "day")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("studentId"), day, actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
