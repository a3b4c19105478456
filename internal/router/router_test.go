package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/handler"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/config"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type balanceStub struct{}

func (balanceStub) GetBalance(ctx context.Context, studentID string) (*models.Balance, error) {
	return &models.Balance{StudentID: studentID}, nil
}

type progressStub struct{}

func (progressStub) StudentProgress(ctx context.Context, studentID string) ([]models.DatasetProgress, error) {
	return []models.DatasetProgress{}, nil
}

func newTestEngine(cfg *config.Config) http.Handler {
	tokens := tokenStub{
		"student": {UserID: "stu-1", Role: models.RoleStudent},
		"admin":   {UserID: "admin-1", Role: models.RoleAdmin},
	}
	return New(Deps{Config: cfg, Logger: zap.NewNop(), Tokens: tokens}, Handlers{
		Health:   handler.NewHealthHandler(nil, nil),
		Balances: handler.NewBalanceHandler(progressStub{}, balanceStub{}),
	})
}

func call(h http.Handler, method, path, token string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	h.ServeHTTP(w, req)
	return w.Code
}

func TestRouterAccessControl(t *testing.T) {
	engine := newTestEngine(&config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"})

	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusUnauthorized, call(engine, http.MethodGet, "/api/v1/students/stu-1/balance", ""))
	assert.Equal(t, http.StatusUnauthorized, call(engine, http.MethodGet, "/api/v1/students/stu-1/balance", "forged"))
	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/api/v1/students/stu-1/balance", "student"))
	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/api/v1/students/stu-1/progress", "student"))
	assert.Equal(t, http.StatusForbidden, call(engine, http.MethodGet, "/api/v1/students/stu-2/balance", "student"))
	assert.Equal(t, http.StatusOK, call(engine, http.MethodGet, "/api/v1/students/stu-2/balance", "admin"))
	assert.Equal(t, http.StatusForbidden, call(engine, http.MethodGet, "/api/v1/reconciliation", "student"))
	assert.Equal(t, http.StatusForbidden, call(engine, http.MethodPost, "/api/v1/requests/req-1/process", "student"))
}

func TestRouterFeatureGatedGroups(t *testing.T) {
	engine := newTestEngine(&config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"})

	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/api/v1/analytics/leaderboard", "admin"))
	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/api/v1/exports/balances", "admin"))
	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/docs/index.html", ""))
}
