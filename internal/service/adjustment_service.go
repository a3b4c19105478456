package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/sanitize"
)

type adjustmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, adj *models.CoinAdjustment) error
	GetByID(ctx context.Context, id string) (*models.CoinAdjustment, error)
	List(ctx context.Context, filter models.AdjustmentFilter) ([]models.CoinAdjustment, error)
	Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	SumActive(ctx context.Context, studentID, period string, section int) (int, error)
	SumActiveGlobal(ctx context.Context, studentID string) (int, error)
}

// AdjustmentService manages manual coin adjustments. Adjustments are never
// deleted; deactivation keeps the row for the audit trail.
type AdjustmentService struct {
	repo      adjustmentStore
	audit     auditLogger
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdjustmentService constructs the service.
func NewAdjustmentService(repo adjustmentStore, audit auditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AdjustmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdjustmentService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Create records a manual adjustment. An empty period means GLOBAL.
func (s *AdjustmentService) Create(ctx context.Context, studentID string, req dto.CreateAdjustmentRequest, actorID string) (*models.CoinAdjustment, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjustment payload")
	}
	reason := sanitize.Text(req.Reason)
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	period := strings.TrimSpace(req.Period)
	section := req.Section
	switch {
	case period == "" || strings.EqualFold(period, models.GlobalPeriod):
		period = models.GlobalPeriod
		section = 0
	case !models.ValidSection(section):
		return nil, appErrors.Clone(appErrors.ErrValidation, "period-scoped adjustments need a positive sectionNumber")
	}

	adj := &models.CoinAdjustment{
		StudentID: studentID,
		Period:    period,
		Section:   section,
		Amount:    req.Amount,
		Reason:    reason,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, nil, adj); err != nil {
		return nil, appErrors.Store(err, "failed to create adjustment")
	}
	s.emitAudit(ctx, actorID, models.AuditActionAdjustmentCreate, adj)
	invalidateAnalytics(ctx, s.cache)
	s.logger.Info("adjustment created",
		zap.String("adjustment_id", adj.ID),
		zap.String("student_id", studentID),
		zap.String("period", period),
		zap.Int("amount", adj.Amount),
	)
	return adj, nil
}

// List returns a student's adjustments.
func (s *AdjustmentService) List(ctx context.Context, studentID string, includeInactive bool) ([]models.CoinAdjustment, error) {
	adjustments, err := s.repo.List(ctx, models.AdjustmentFilter{StudentID: studentID, IncludeInactive: includeInactive})
	if err != nil {
		return nil, appErrors.Store(err, "failed to list adjustments")
	}
	if adjustments == nil {
		adjustments = []models.CoinAdjustment{}
	}
	return adjustments, nil
}

// Deactivate soft-deletes a manual adjustment. Deactivating an inactive
// adjustment succeeds without changing anything. Adjustments linked to a
// student request belong to the request workflow and are refused.
func (s *AdjustmentService) Deactivate(ctx context.Context, id, actorID string) (*models.CoinAdjustment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment not found")
		}
		return nil, appErrors.Store(err, "failed to load adjustment")
	}
	if current.RequestID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("adjustment belongs to request %s; reject it through POST /requests/%s/process", *current.RequestID, *current.RequestID))
	}

	changed, err := s.repo.Deactivate(ctx, nil, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "adjustment not found")
		}
		return nil, appErrors.Store(err, "failed to deactivate adjustment")
	}
	if !changed {
		return current, nil
	}
	adj, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Store(err, "failed to reload adjustment")
	}
	s.emitAudit(ctx, actorID, models.AuditActionAdjustmentDisable, adj)
	invalidateAnalytics(ctx, s.cache)
	return adj, nil
}

// SumActive totals active adjustments scoped to (student, period, section).
func (s *AdjustmentService) SumActive(ctx context.Context, studentID, period string, section int) (int, error) {
	total, err := s.repo.SumActive(ctx, studentID, period, section)
	if err != nil {
		return 0, appErrors.Store(err, "failed to sum adjustments")
	}
	return total, nil
}

// SumActiveGlobal totals active GLOBAL adjustments of a student.
func (s *AdjustmentService) SumActiveGlobal(ctx context.Context, studentID string) (int, error) {
	total, err := s.repo.SumActiveGlobal(ctx, studentID)
	if err != nil {
		return 0, appErrors.Store(err, "failed to sum global adjustments")
	}
	return total, nil
}

func (s *AdjustmentService) emitAudit(ctx context.Context, actorID, action string, adj *models.CoinAdjustment) {
	if s.audit == nil || adj == nil {
		return
	}
	payload, _ := json.Marshal(adj)
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "coin_adjustment",
		ResourceID: &adj.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "adjustment-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
