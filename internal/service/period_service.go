package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/database"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/sanitize"
)

type periodStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, period *models.Period) error
	Get(ctx context.Context, key string) (*models.Period, error)
	List(ctx context.Context) ([]models.Period, error)
}

// PeriodService manages the period catalog. Redefinitions overwrite the
// previous range (last write wins) and are not versioned.
type PeriodService struct {
	repo      periodStore
	tx        txProvider
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs the service.
func NewPeriodService(repo periodStore, tx txProvider, audit auditLogger, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{repo: repo, tx: tx, audit: audit, validator: validate, logger: logger}
}

// Create stores a new period. Existing keys fail with CONFLICT.
func (s *PeriodService) Create(ctx context.Context, req dto.UpsertPeriodRequest, actorID string) (*models.Period, error) {
	period, err := s.build(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, period.Key); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "period already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to check period")
	}
	if err := s.save(ctx, period, actorID); err != nil {
		return nil, err
	}
	return period, nil
}

// Update redefines an existing period.
func (s *PeriodService) Update(ctx context.Context, key string, req dto.UpsertPeriodRequest, actorID string) (*models.Period, error) {
	req.Key = key
	period, err := s.build(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, period.Key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Store(err, "failed to load period")
	}
	period.CreatedAt = existing.CreatedAt
	if err := s.save(ctx, period, actorID); err != nil {
		return nil, err
	}
	return period, nil
}

// Get returns one period.
func (s *PeriodService) Get(ctx context.Context, key string) (*models.Period, error) {
	period, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Store(err, "failed to load period")
	}
	return period, nil
}

// List returns the catalog.
func (s *PeriodService) List(ctx context.Context) ([]models.Period, error) {
	periods, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list periods")
	}
	if periods == nil {
		periods = []models.Period{}
	}
	return periods, nil
}

func (s *PeriodService) build(req dto.UpsertPeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	key := strings.TrimSpace(req.Key)
	if strings.EqualFold(key, models.GlobalPeriod) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "GLOBAL is reserved")
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "startDate must be YYYY-MM-DD")
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "endDate must be YYYY-MM-DD")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must not be after endDate")
	}

	period := &models.Period{
		Key:       key,
		Name:      sanitize.Text(req.Name),
		StartDate: start,
		EndDate:   end,
	}
	seen := make(map[string]bool, len(req.ExcludedDates))
	excluded := make([]time.Time, 0, len(req.ExcludedDates))
	for _, raw := range req.ExcludedDates {
		date, err := models.ParseDate(raw)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "excludedDates must be YYYY-MM-DD")
		}
		if !period.Contains(date) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("excluded date %s is outside the period", raw))
		}
		if seen[models.DateKey(date)] {
			continue
		}
		seen[models.DateKey(date)] = true
		excluded = append(excluded, date)
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i].Before(excluded[j]) })
	period.ExcludedDates = excluded
	return period, nil
}

func (s *PeriodService) save(ctx context.Context, period *models.Period, actorID string) error {
	err := database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.repo.Upsert(ctx, tx, period)
	})
	if err != nil {
		return appErrors.Store(err, "failed to save period")
	}
	if s.audit != nil {
		payload, _ := json.Marshal(period)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionPeriodUpsert,
			Resource:   "period",
			ResourceID: &period.Key,
			NewValues:  payload,
			IPAddress:  "system",
			UserAgent:  "period-service",
		}); err != nil {
			s.logger.Warn("failed to persist audit log", zap.Error(err))
		}
	}
	return nil
}
