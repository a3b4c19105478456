package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

const metricsNamespace = "coins"

// durationTally keeps a count and a nanosecond sum for snapshot averages.
type durationTally struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *durationTally) add(d time.Duration) {
	t.count.Add(1)
	t.nanos.Add(uint64(d.Nanoseconds()))
}

func (t *durationTally) averageMs() (uint64, float64) {
	n := t.count.Load()
	if n == 0 {
		return 0, 0
	}
	return n, float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns a private Prometheus registry for the coins API and
// keeps in-process tallies for the system analytics endpoint.
type MetricsService struct {
	handler http.Handler

	httpDuration *prometheus.HistogramVec
	httpTotal    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	cacheLatency prometheus.Histogram
	cacheWrites  prometheus.Histogram
	cacheRatio   prometheus.Gauge
	queries      *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	balances     prometheus.Histogram
	throttled    prometheus.Counter

	hits, misses atomic.Uint64
	requests     durationTally
	dbQueries    durationTally
}

func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	m := &MetricsService{
		handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "request_duration_seconds",
			Help: "HTTP request latency by route template.",
		}, []string{"method", "path", "status"}),
		httpTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route template.",
		}, []string{"method", "path", "status"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "lookups_total",
			Help: "Analytics cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "read_seconds",
			Help: "Analytics cache read latency.",
		}),
		cacheWrites: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "write_seconds",
			Help: "Analytics cache write latency.",
		}),
		cacheRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "hit_ratio",
			Help: "Share of analytics cache lookups that hit.",
		}),
		queries: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "db", Name: "query_duration_seconds",
			Help: "Aggregate query latency by label.",
		}, []string{"query"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "request", Name: "transitions_total",
			Help: "Student request workflow transitions by request type.",
		}, []string{"type", "transition"}),
		balances: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: "balance", Name: "computation_seconds",
			Help: "Time spent aggregating a student balance.",
		}),
		throttled: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: "request", Name: "submissions_throttled_total",
			Help: "Submissions rejected by the per-caller rate limiter.",
		}),
	}
	return m
}

// Handler serves the registry in the Prometheus text format. A nil service
// answers 503.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpTotal.WithLabelValues(method, path, code).Inc()
	m.requests.add(duration)
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.hits.Add(1)
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.misses.Add(1)
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
	m.cacheRatio.Set(m.hitRatio())
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(label).Observe(duration.Seconds())
	m.dbQueries.add(duration)
}

// RecordRequestTransition counts submitted, approved and rejected steps.
func (m *MetricsService) RecordRequestTransition(requestType models.RequestType, transition string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(requestType), transition).Inc()
}

func (m *MetricsService) ObserveBalanceComputation(duration time.Duration) {
	if m == nil {
		return
	}
	m.balances.Observe(duration.Seconds())
}

func (m *MetricsService) RecordThrottled() {
	if m == nil {
		return
	}
	m.throttled.Inc()
}

func (m *MetricsService) hitRatio() float64 {
	hits, misses := m.hits.Load(), m.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Snapshot summarises the in-process tallies for /analytics/system.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests, avgRequest := m.requests.averageMs()
	queries, avgQuery := m.dbQueries.averageMs()
	return models.SystemMetrics{
		CacheHitRatio:            m.hitRatio(),
		CacheHits:                m.hits.Load(),
		CacheMisses:              m.misses.Load(),
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQuery,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
