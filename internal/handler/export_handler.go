package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/service"
	"github.com/noah-isme/sma-coins-api/pkg/export"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type exportService interface {
	BalanceReport(ctx context.Context, period string, format export.Format) (*service.ExportResult, error)
}

// ExportHandler streams balance reports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds an export handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Balances godoc
// @Summary Download balance report
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param period query string false "Period key"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /exports/balances [get]
func (h *ExportHandler) Balances(c *gin.Context) {
	result, err := h.service.BalanceReport(c.Request.Context(), c.Query("period"), export.Format(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}
