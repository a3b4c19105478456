package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/database"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type reconciliationStore interface {
	FindInconsistencies(ctx context.Context) ([]models.Inconsistency, error)
	DeactivateAdjustments(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]string, error)
}

// ReconciliationService detects partial commits between requests and their
// coin deductions. Repair only ever deactivates adjustments; it never debits.
type ReconciliationService struct {
	repo   reconciliationStore
	tx     txProvider
	audit  auditLogger
	cache  cacheInvalidator
	logger *zap.Logger
}

// NewReconciliationService constructs the service.
func NewReconciliationService(repo reconciliationStore, tx txProvider, audit auditLogger, cache cacheInvalidator, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{repo: repo, tx: tx, audit: audit, cache: cache, logger: logger}
}

// FindInconsistencies lists every finding.
func (s *ReconciliationService) FindInconsistencies(ctx context.Context) ([]models.Inconsistency, error) {
	findings, err := s.repo.FindInconsistencies(ctx)
	if err != nil {
		return nil, appErrors.Store(err, "failed to run reconciliation query")
	}
	if findings == nil {
		findings = []models.Inconsistency{}
	}
	return findings, nil
}

// Repair deactivates the active adjustments behind repairable findings of the
// requested kinds, or of every repairable kind when none are given.
func (s *ReconciliationService) Repair(ctx context.Context, req dto.RepairRequest, actorID string) (*dto.RepairResult, error) {
	kinds := make(map[models.InconsistencyKind]bool)
	for _, kind := range req.Kinds {
		if !kind.Repairable() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s cannot be repaired automatically", kind))
		}
		kinds[kind] = true
	}

	findings, err := s.FindInconsistencies(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]string, 0, len(findings))
	seen := make(map[string]bool, len(findings))
	for _, f := range findings {
		if !f.Kind.Repairable() || (len(kinds) > 0 && !kinds[f.Kind]) {
			continue
		}
		if f.AdjustmentID == nil || f.AdjustmentLive == nil || !*f.AdjustmentLive || seen[*f.AdjustmentID] {
			continue
		}
		seen[*f.AdjustmentID] = true
		targets = append(targets, *f.AdjustmentID)
	}

	result := &dto.RepairResult{Deactivated: []string{}}
	if len(targets) > 0 {
		err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
			changed, err := s.repo.DeactivateAdjustments(ctx, tx, targets)
			if err != nil {
				return err
			}
			result.Deactivated = append(result.Deactivated, changed...)
			return nil
		})
		if err != nil {
			return nil, appErrors.Store(err, "failed to repair adjustments")
		}
	}

	if len(result.Deactivated) > 0 {
		s.emitAudit(ctx, actorID, result.Deactivated)
		invalidateAnalytics(ctx, s.cache)
	}
	s.logger.Info("reconciliation repair finished", zap.Int("deactivated", len(result.Deactivated)))

	remaining, err := s.FindInconsistencies(ctx)
	if err != nil {
		return nil, err
	}
	result.Remaining = remaining
	return result, nil
}

func (s *ReconciliationService) emitAudit(ctx context.Context, actorID string, ids []string) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string][]string{"deactivated": ids})
	log := &models.AuditLog{
		UserID:    &actorID,
		Action:    models.AuditActionReconcileRepair,
		Resource:  "coin_adjustment",
		NewValues: payload,
		IPAddress: "system",
		UserAgent: "reconciliation-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
