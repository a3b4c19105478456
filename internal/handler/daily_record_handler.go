package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type dailyRecordService interface {
	Ingest(ctx context.Context, studentID, periodKey string, section int, req dto.IngestRecordsRequest, actorID string) (*dto.IngestRecordsResult, error)
	ListRecords(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error)
	FindRecordByDate(ctx context.Context, studentID, rawDate string) ([]models.DailyRecord, error)
}

// DailyRecordHandler ingests and lists per-day activity.
type DailyRecordHandler struct {
	service dailyRecordService
}

// NewDailyRecordHandler builds a daily record handler.
func NewDailyRecordHandler(service dailyRecordService) *DailyRecordHandler {
	return &DailyRecordHandler{service: service}
}

// Replace godoc
// @Summary Replace dataset records
// @Description Replaces every record of the (student, period, section) dataset.
// @Tags Records
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param period path string true "Period key"
// @Param section path int true "Section number"
// @Param payload body dto.IngestRecordsRequest true "Records"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/periods/{period}/sections/{section}/records [put]
func (h *DailyRecordHandler) Replace(c *gin.Context) {
	section, err := intParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.IngestRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid records payload"))
		return
	}
	result, err := h.service.Ingest(c.Request.Context(), c.Param("studentId"), c.Param("period"), section, req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List dataset records
// @Tags Records
// @Produce json
// @Param studentId path string true "Student ID"
// @Param period path string true "Period key"
// @Param section path int true "Section number"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/periods/{period}/sections/{section}/records [get]
func (h *DailyRecordHandler) List(c *gin.Context) {
	section, err := intParam(c, "section")
	if err != nil {
		response.Error(c, err)
		return
	}
	records, err := h.service.ListRecords(c.Request.Context(), models.Dataset{
		StudentID: c.Param("studentId"),
		PeriodKey: c.Param("period"),
		Section:   section,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// ByDate godoc
// @Summary Day records of a student
// @Description Returns the stored record of every dataset covering the date. Used when reviewing override requests.
// @Tags Records
// @Produce json
// @Param studentId path string true "Student ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/records/{date} [get]
func (h *DailyRecordHandler) ByDate(c *gin.Context) {
	records, err := h.service.FindRecordByDate(c.Request.Context(), c.Param("studentId"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
