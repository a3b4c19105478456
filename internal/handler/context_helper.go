package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-coins-api/internal/middleware"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func intParam(c *gin.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return value, nil
}

// uuidParam reads a UUID path parameter in canonical form.
func uuidParam(c *gin.Context, name string) (string, error) {
	parsed, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter: expected a UUID")
	}
	return parsed.String(), nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
