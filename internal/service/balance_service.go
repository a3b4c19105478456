package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type progressSource interface {
	StudentProgress(ctx context.Context, studentID string) ([]models.DatasetProgress, error)
}

type adjustmentSummer interface {
	SumActive(ctx context.Context, studentID, period string, section int) (int, error)
	SumActiveGlobal(ctx context.Context, studentID string) (int, error)
}

// BalanceService aggregates derived coins and active adjustments into the
// student's spendable balance. Results are always computed from the store and
// never cached.
type BalanceService struct {
	progress    progressSource
	adjustments adjustmentSummer
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewBalanceService constructs the aggregator.
func NewBalanceService(progress progressSource, adjustments adjustmentSummer, metrics *MetricsService, logger *zap.Logger) *BalanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{progress: progress, adjustments: adjustments, metrics: metrics, logger: logger}
}

// GetBalance returns the clamped aggregate balance and its per-period breakdown.
// Period-scoped adjustments only count for a (period, section) the student has
// records in.
func (s *BalanceService) GetBalance(ctx context.Context, studentID string) (*models.Balance, error) {
	start := time.Now()
	datasets, err := s.progress.StudentProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	balance := &models.Balance{
		StudentID: studentID,
		PerPeriod: make([]models.PeriodBalance, 0, len(datasets)),
	}
	sum := 0
	for _, ds := range datasets {
		adjustment, err := s.adjustments.SumActive(ctx, studentID, ds.PeriodKey, ds.Section)
		if err != nil {
			return nil, asStoreError(err, "failed to sum period adjustments")
		}
		line := models.PeriodBalance{
			Period:     ds.PeriodKey,
			Section:    ds.Section,
			Coins:      ds.Coins,
			Adjustment: adjustment,
			Total:      ds.Coins + adjustment,
		}
		sum += line.Total
		balance.PerPeriod = append(balance.PerPeriod, line)
	}

	global, err := s.adjustments.SumActiveGlobal(ctx, studentID)
	if err != nil {
		return nil, asStoreError(err, "failed to sum global adjustments")
	}
	balance.GlobalAdjustment = global
	balance.Unclamped = sum + global
	balance.Total = balance.Unclamped
	if balance.Total < 0 {
		balance.Total = 0
		s.logger.Warn("negative balance clamped", zap.String("student_id", studentID), zap.Int("unclamped", balance.Unclamped))
	}

	s.metrics.ObserveBalanceComputation(time.Since(start))
	return balance, nil
}

// asStoreError keeps typed errors and wraps anything else as STORE_UNAVAILABLE.
func asStoreError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Store(err, message)
}
