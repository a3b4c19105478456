package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, input dto.SubmitRequestInput, flags models.FeatureFlags) (*dto.SubmitRequestResult, error)
	Process(ctx context.Context, id string, input dto.ProcessRequestInput, adminID string) (*dto.ProcessRequestResult, error)
	MagicApprove(ctx context.Context, studentID, adminID string) (*dto.MagicApproveResult, error)
	List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.StudentRequest, int, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.StudentRequest, error)
}

type flagSource interface {
	Flags(ctx context.Context) (models.FeatureFlags, error)
}

// RequestHandler exposes the student request workflow.
type RequestHandler struct {
	service requestService
	flags   flagSource
}

// NewRequestHandler builds a request handler.
func NewRequestHandler(service requestService, flags flagSource) *RequestHandler {
	return &RequestHandler{service: service, flags: flags}
}

// Submit godoc
// @Summary Submit a request
// @Description Students submit on their own behalf. Redemptions debit coins immediately.
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.SubmitRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input dto.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, bindError(err, "invalid request payload"))
		return
	}
	if !claims.IsAdmin() {
		input.StudentID = claims.UserID
	}

	flags, err := h.flags.Flags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Submit(c.Request.Context(), input, flags)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List requests
// @Description Students only see their own requests.
// @Tags Requests
// @Produce json
// @Param student_id query string false "Student filter (admins)"
// @Param status query string false "Comma separated statuses"
// @Param type query string false "Request type"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	page, pageSize, err := parsePaging(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.RequestQuery{
		StudentID: c.Query("student_id"),
		Type:      models.RequestType(c.Query("type")),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			query.Status = append(query.Status, models.RequestStatus(raw))
		}
	}

	items, total, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, models.NewPagination(page, pageSize, total))
}

// Get godoc
// @Summary Get request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	item, err := h.service.Get(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Process godoc
// @Summary Approve or reject a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ProcessRequestInput true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/process [post]
func (h *RequestHandler) Process(c *gin.Context) {
	id, err := uuidParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input dto.ProcessRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, bindError(err, "invalid decision payload"))
		return
	}
	result, err := h.service.Process(c.Request.Context(), id, input, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MagicApprove godoc
// @Summary Auto-approve routine override requests
// @Tags Requests
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/requests/magic-approve [post]
func (h *RequestHandler) MagicApprove(c *gin.Context) {
	result, err := h.service.MagicApprove(c.Request.Context(), c.Param("studentId"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func parsePaging(c *gin.Context) (int, int, error) {
	page, pageSize := 1, 20
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "invalid page parameter")
		}
		page = v
	}
	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			return 0, 0, appErrors.Clone(appErrors.ErrValidation, "invalid page_size parameter")
		}
		pageSize = v
	}
	return page, pageSize, nil
}
