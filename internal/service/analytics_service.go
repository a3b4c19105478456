package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type datasetCatalog interface {
	ListAllDatasets(ctx context.Context, period string, section *int) ([]models.Dataset, error)
}

type datasetProgressReader interface {
	DatasetProgress(ctx context.Context, dataset models.Dataset) (*models.DatasetProgress, error)
}

type studentBalanceReader interface {
	GetBalance(ctx context.Context, studentID string) (*models.Balance, error)
}

// AnalyticsService aggregates derived progress and balances across students.
// Results are cached and dropped whenever a ledger write happens.
type AnalyticsService struct {
	datasets datasetCatalog
	progress datasetProgressReader
	balances studentBalanceReader
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(datasets datasetCatalog, progress datasetProgressReader, balances studentBalanceReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{datasets: datasets, progress: progress, balances: balances, cache: cache, metrics: metrics, logger: logger}
}

// PeriodSummary averages progress over every dataset of a (period, section).
// A nil section groups each section separately. The boolean reports a cache hit.
func (s *AnalyticsService) PeriodSummary(ctx context.Context, period string, section *int) ([]models.PeriodSummary, bool, error) {
	cacheKey := makeAnalyticsCacheKey("summary", period, formatSection(section))
	var cached []models.PeriodSummary
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get summary cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	datasets, err := s.datasets.ListAllDatasets(ctx, period, section)
	if err != nil {
		return nil, false, appErrors.Store(err, "failed to list datasets")
	}

	type bucket struct {
		students int
		percent  decimal.Decimal
		coins    int
	}
	buckets := make(map[string]*bucket)
	order := make([]models.PeriodSummary, 0)
	for _, ds := range datasets {
		derived, err := s.progress.DatasetProgress(ctx, ds)
		if err != nil {
			return nil, false, err
		}
		key := ds.PeriodKey + "#" + strconv.Itoa(ds.Section)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, models.PeriodSummary{Period: ds.PeriodKey, Section: ds.Section})
		}
		b.students++
		b.percent = b.percent.Add(decimal.NewFromFloat(derived.PercentComplete))
		b.coins += derived.Coins
	}

	now := time.Now().UTC()
	for i := range order {
		b := buckets[order[i].Period+"#"+strconv.Itoa(order[i].Section)]
		order[i].Students = b.students
		order[i].TotalCoins = b.coins
		order[i].AveragePercent = b.percent.Div(decimal.NewFromInt(int64(b.students))).Round(1).InexactFloat64()
		order[i].GeneratedAt = now
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Period != order[j].Period {
			return order[i].Period < order[j].Period
		}
		return order[i].Section < order[j].Section
	})

	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_summary", time.Since(start))
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, order, 0); err != nil {
			s.logger.Warn("cache summary", zap.Error(err))
		}
	}
	return order, false, nil
}

// Leaderboard ranks students of a period by aggregate balance.
func (s *AnalyticsService) Leaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	cacheKey := makeAnalyticsCacheKey("leaderboard", period, strconv.Itoa(limit))
	var cached []models.LeaderboardEntry
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get leaderboard cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	datasets, err := s.datasets.ListAllDatasets(ctx, period, nil)
	if err != nil {
		return nil, false, appErrors.Store(err, "failed to list datasets")
	}
	seen := make(map[string]bool)
	entries := make([]models.LeaderboardEntry, 0)
	for _, ds := range datasets {
		if seen[ds.StudentID] {
			continue
		}
		seen[ds.StudentID] = true
		balance, err := s.balances.GetBalance(ctx, ds.StudentID)
		if err != nil {
			return nil, false, err
		}
		entries = append(entries, models.LeaderboardEntry{StudentID: ds.StudentID, Total: balance.Total})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].StudentID < entries[j].StudentID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_leaderboard", time.Since(start))
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, entries, 0); err != nil {
			s.logger.Warn("cache leaderboard", zap.Error(err))
		}
	}
	return entries, false, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{GeneratedAt: time.Now().UTC()}
	}
	return s.metrics.Snapshot()
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}

func formatSection(section *int) string {
	if section == nil {
		return ""
	}
	return "s" + strconv.Itoa(*section)
}
