package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/sanitize"
)

type overrideStore interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Override, error)
	DeleteByDay(ctx context.Context, studentID string, dayNumber int) (int64, error)
}

// OverrideService exposes administrative access to the override store.
type OverrideService struct {
	repo      overrideStore
	audit     auditLogger
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService constructs the service.
func NewOverrideService(repo overrideStore, audit auditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Upsert creates or replaces the override of (studentID, date).
func (s *OverrideService) Upsert(ctx context.Context, studentID string, req dto.UpsertOverrideRequest, actorID string) (*models.Override, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	if !req.OverrideType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "overrideType must be qualified or not_qualified")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}

	override := &models.Override{
		StudentID:    studentID,
		Date:         date,
		DayNumber:    req.DayNumber,
		OverrideType: req.OverrideType,
		Reason:       sanitize.Text(req.Reason),
		CreatedBy:    actorID,
	}
	if err := s.repo.Upsert(ctx, nil, override); err != nil {
		return nil, appErrors.Store(err, "failed to upsert override")
	}

	s.emitAudit(ctx, actorID, models.AuditActionOverrideUpsert, override.ID, override)
	invalidateAnalytics(ctx, s.cache)
	return override, nil
}

// List returns the overrides of a student.
func (s *OverrideService) List(ctx context.Context, studentID string) ([]models.Override, error) {
	overrides, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list overrides")
	}
	if overrides == nil {
		overrides = []models.Override{}
	}
	return overrides, nil
}

// Delete removes the overrides a student has for dayNumber.
func (s *OverrideService) Delete(ctx context.Context, studentID string, dayNumber int, actorID string) error {
	if dayNumber < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "day must be a positive integer")
	}
	if _, err := s.repo.DeleteByDay(ctx, studentID, dayNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Store(err, "failed to delete override")
	}
	s.emitAudit(ctx, actorID, models.AuditActionOverrideDelete, studentID+":"+strconv.Itoa(dayNumber), nil)
	invalidateAnalytics(ctx, s.cache)
	return nil
}

func (s *OverrideService) emitAudit(ctx context.Context, actorID, action, resourceID string, payload *models.Override) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   "override",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "override-service",
	}
	if payload != nil {
		log.NewValues, _ = json.Marshal(payload)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
