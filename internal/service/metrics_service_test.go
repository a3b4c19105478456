package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students/:studentId/balance", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/students/:studentId/balance", 200, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveDBQuery("balance", 10*time.Millisecond)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.EqualValues(t, 2, snap.CacheHits)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 1, snap.DBQueryCount)
	assert.InDelta(t, 10, snap.AverageDBQueryDurationMs, 0.001)
}

func TestMetricsServiceExposesCoinCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordRequestTransition(models.RequestQuizReplacement, "submitted")
	m.RecordThrottled()
	m.ObserveBalanceComputation(time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `coins_request_transitions_total{transition="submitted",type="quiz_replacement"} 1`)
	assert.Contains(t, body, "coins_request_submissions_throttled_total 1")
	assert.Contains(t, body, "coins_balance_computation_seconds_count 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)
	m.RecordThrottled()
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
