package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type progressService interface {
	StudentProgress(ctx context.Context, studentID string) ([]models.DatasetProgress, error)
}

type balanceService interface {
	GetBalance(ctx context.Context, studentID string) (*models.Balance, error)
}

// BalanceHandler serves derived progress and coin balances.
type BalanceHandler struct {
	progress progressService
	balances balanceService
}

// NewBalanceHandler builds a balance handler.
func NewBalanceHandler(progress progressService, balances balanceService) *BalanceHandler {
	return &BalanceHandler{progress: progress, balances: balances}
}

// Progress godoc
// @Summary Student progress
// @Description Derived progress of every dataset with overrides applied.
// @Tags Balances
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/progress [get]
func (h *BalanceHandler) Progress(c *gin.Context) {
	progress, err := h.progress.StudentProgress(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Balance godoc
// @Summary Student balance
// @Tags Balances
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/balance [get]
func (h *BalanceHandler) Balance(c *gin.Context) {
	balance, err := h.balances.GetBalance(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
