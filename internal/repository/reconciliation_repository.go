package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

// ReconciliationRepository runs the cross-table consistency checks between
// request-linked adjustments and their requests.
type ReconciliationRepository struct {
	db *sqlx.DB
}

// NewReconciliationRepository constructs the repository.
func NewReconciliationRepository(db *sqlx.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

const inconsistencyQuery = `
SELECT 'MISSING_REQUEST' AS kind, a.id AS adjustment_id, a.request_id AS request_id, a.student_id,
       a.amount, NULL::TEXT AS request_status, a.is_active AS adjustment_active
FROM coin_adjustments a
LEFT JOIN student_requests r ON r.id = a.request_id
WHERE a.request_id IS NOT NULL AND r.id IS NULL
UNION ALL
SELECT 'REJECTED_WITH_ACTIVE_ADJUSTMENT', a.id, a.request_id, a.student_id,
       a.amount, r.status, a.is_active
FROM coin_adjustments a
JOIN student_requests r ON r.id = a.request_id
WHERE a.is_active = TRUE AND r.status = 'rejected'
UNION ALL
SELECT 'LIVE_REQUEST_WITH_INACTIVE_ADJUSTMENT', a.id, a.request_id, a.student_id,
       a.amount, r.status, a.is_active
FROM coin_adjustments a
JOIN student_requests r ON r.id = a.request_id
WHERE a.is_active = FALSE AND r.status IN ('pending', 'approved')
  AND r.type IN ('assignment_replacement', 'quiz_replacement')
  AND NOT EXISTS (SELECT 1 FROM coin_adjustments b WHERE b.request_id = r.id AND b.is_active = TRUE)
UNION ALL
SELECT 'REDEMPTION_WITHOUT_ADJUSTMENT', NULL, r.id, r.student_id,
       NULL, r.status, NULL
FROM student_requests r
WHERE r.status IN ('pending', 'approved')
  AND r.type IN ('assignment_replacement', 'quiz_replacement')
  AND NOT EXISTS (SELECT 1 FROM coin_adjustments a WHERE a.request_id = r.id)
ORDER BY student_id, request_id`

// FindInconsistencies returns every finding across the ledger.
func (r *ReconciliationRepository) FindInconsistencies(ctx context.Context) ([]models.Inconsistency, error) {
	var findings []models.Inconsistency
	if err := r.db.SelectContext(ctx, &findings, inconsistencyQuery); err != nil {
		return nil, fmt.Errorf("find inconsistencies: %w", err)
	}
	return findings, nil
}

// DeactivateAdjustments soft-deletes the given active adjustments and returns
// the ids actually changed.
func (r *ReconciliationRepository) DeactivateAdjustments(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	target := sqlx.ExtContext(r.db)
	if exec != nil {
		target = exec
	}
	query, args, err := sqlx.In(`UPDATE coin_adjustments SET is_active = FALSE, deactivated_at = NOW()
WHERE is_active = TRUE AND id IN (?) RETURNING id`, ids)
	if err != nil {
		return nil, fmt.Errorf("build repair query: %w", err)
	}
	query = target.Rebind(query)
	var changed []string
	if err := sqlx.SelectContext(ctx, target, &changed, query, args...); err != nil {
		return nil, fmt.Errorf("repair adjustments: %w", err)
	}
	return changed, nil
}
