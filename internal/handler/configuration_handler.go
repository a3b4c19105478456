package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/response"
)

type flagService interface {
	List(ctx context.Context) ([]dto.ConfigurationItem, error)
	Update(ctx context.Context, key, value string, actor *models.JWTClaims) (*dto.ConfigurationItem, error)
}

// ConfigurationHandler lets administrators read and flip the submission flags.
type ConfigurationHandler struct {
	flags flagService
}

func NewConfigurationHandler(flags flagService) *ConfigurationHandler {
	return &ConfigurationHandler{flags: flags}
}

// List godoc
// @Summary List feature flags with their effective values
// @Tags Configuration
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /configuration/flags [get]
func (h *ConfigurationHandler) List(c *gin.Context) {
	items, err := h.flags.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Update godoc
// @Summary Persist a feature flag value
// @Tags Configuration
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param key path string true "Flag key"
// @Param payload body dto.UpdateConfigurationRequest true "New value"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /configuration/flags/{key} [put]
func (h *ConfigurationHandler) Update(c *gin.Context) {
	var body dto.UpdateConfigurationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, bindError(err, "value is required"))
		return
	}
	item, err := h.flags.Update(c.Request.Context(), c.Param("key"), body.Value, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
