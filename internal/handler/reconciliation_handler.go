package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type reconciliationService interface {
	FindInconsistencies(ctx context.Context) ([]models.Inconsistency, error)
	Repair(ctx context.Context, req dto.RepairRequest, actorID string) (*dto.RepairResult, error)
}

// ReconciliationHandler exposes the ledger consistency report.
type ReconciliationHandler struct {
	service reconciliationService
}

// NewReconciliationHandler builds a reconciliation handler.
func NewReconciliationHandler(service reconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// Report godoc
// @Summary List ledger inconsistencies
// @Tags Reconciliation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reconciliation [get]
func (h *ReconciliationHandler) Report(c *gin.Context) {
	items, err := h.service.FindInconsistencies(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Repair godoc
// @Summary Deactivate adjustments behind repairable findings
// @Tags Reconciliation
// @Accept json
// @Produce json
// @Param payload body dto.RepairRequest false "Kinds to repair"
// @Success 200 {object} response.Envelope
// @Router /reconciliation/repair [post]
func (h *ReconciliationHandler) Repair(c *gin.Context) {
	var req dto.RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err, "invalid repair payload"))
		return
	}
	result, err := h.service.Repair(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
