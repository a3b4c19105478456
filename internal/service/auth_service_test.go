package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func testClaims(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{
		UserID: "u1",
		Role:   role,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "school-idp",
			Audience:  jwt.ClaimStrings{"coins-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "school-idp", Audience: []string{"coins-api"}})

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "secret", testClaims(models.RoleStudent)))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: "secret", Issuer: "school-idp"})

	expired := testClaims(models.RoleAdmin)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := testClaims(models.RoleAdmin)
	wrongIssuer.Issuer = "elsewhere"

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, "other", testClaims(models.RoleAdmin)),
		"wrong method": signToken(t, jwt.SigningMethodHS512, "secret", testClaims(models.RoleAdmin)),
		"expired":      signToken(t, jwt.SigningMethodHS256, "secret", expired),
		"issuer":       signToken(t, jwt.SigningMethodHS256, "secret", wrongIssuer),
		"unknown role": signToken(t, jwt.SigningMethodHS256, "secret", testClaims("TEACHER")),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			requireCode(t, err, appErrors.ErrUnauthorized.Code)
		})
	}
}
