package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type auditReader interface {
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail of a single resource.
type AuditHandler struct {
	repo auditReader
}

// NewAuditHandler builds an audit handler.
func NewAuditHandler(repo auditReader) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// Trail godoc
// @Summary Audit trail of a resource
// @Tags Audit
// @Produce json
// @Param resource path string true "Resource name, e.g. student_request"
// @Param id path string true "Resource ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /audit/{resource}/{id} [get]
func (h *AuditHandler) Trail(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		limit = parsed
	}
	logs, err := h.repo.ListByResource(c.Request.Context(), c.Param("resource"), c.Param("id"), limit)
	if err != nil {
		response.Error(c, appErrors.Store(err, "failed to load audit trail"))
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
