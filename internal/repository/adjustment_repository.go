package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

const adjustmentColumns = `id, student_id, period_key, section_number, amount, reason, created_by, created_at,
       is_active, request_id, deactivated_at`

// AdjustmentRepository persists the coin adjustment ledger.
type AdjustmentRepository struct {
	db *sqlx.DB
}

// NewAdjustmentRepository constructs the repository.
func NewAdjustmentRepository(db *sqlx.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an active adjustment.
func (r *AdjustmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, adj *models.CoinAdjustment) error {
	if adj.ID == "" {
		adj.ID = uuid.NewString()
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}
	adj.IsActive = true
	adj.DeactivatedAt = nil
	const query = `INSERT INTO coin_adjustments
	(id, student_id, period_key, section_number, amount, reason, created_by, created_at, is_active, request_id, deactivated_at)
	VALUES (:id, :student_id, :period_key, :section_number, :amount, :reason, :created_by, :created_at, :is_active, :request_id, :deactivated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, adj); err != nil {
		return fmt.Errorf("create adjustment: %w", err)
	}
	return nil
}

// GetByID fetches an adjustment by identifier.
func (r *AdjustmentRepository) GetByID(ctx context.Context, id string) (*models.CoinAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM coin_adjustments WHERE id = $1`
	var adj models.CoinAdjustment
	if err := r.db.GetContext(ctx, &adj, query, id); err != nil {
		return nil, err
	}
	return &adj, nil
}

// List returns adjustments matching the filter, newest first.
func (r *AdjustmentRepository) List(ctx context.Context, filter models.AdjustmentFilter) ([]models.CoinAdjustment, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + adjustmentColumns + ` FROM coin_adjustments`)
	args := make([]interface{}, 0, 2)
	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		conditions = append(conditions, fmt.Sprintf("period_key = $%d", len(args)))
	}
	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	var adjustments []models.CoinAdjustment
	if err := r.db.SelectContext(ctx, &adjustments, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	return adjustments, nil
}

// Deactivate soft-deletes a manual adjustment. Rows linked to a request are
// never touched. It reports false when nothing changed and returns
// sql.ErrNoRows when the adjustment does not exist.
func (r *AdjustmentRepository) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	target := r.exec(exec)
	const query = `UPDATE coin_adjustments SET is_active = FALSE, deactivated_at = $1 WHERE id = $2 AND is_active = TRUE AND request_id IS NULL`
	result, err := target.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("deactivate adjustment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adjustment rows affected: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists bool
	if err := sqlx.GetContext(ctx, target, &exists, `SELECT EXISTS(SELECT 1 FROM coin_adjustments WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check adjustment exists: %w", err)
	}
	if !exists {
		return false, sql.ErrNoRows
	}
	return false, nil
}

// DeactivateByRequest soft-deletes the active adjustments linked to requestID
// and returns the total amount they carried.
func (r *AdjustmentRepository) DeactivateByRequest(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	const query = `UPDATE coin_adjustments SET is_active = FALSE, deactivated_at = $1
WHERE request_id = $2 AND is_active = TRUE RETURNING amount`
	var amounts []int
	if err := sqlx.SelectContext(ctx, r.exec(exec), &amounts, query, time.Now().UTC(), requestID); err != nil {
		return 0, fmt.Errorf("deactivate request adjustments: %w", err)
	}
	total := 0
	for _, amount := range amounts {
		total += amount
	}
	return total, nil
}

// SumActive totals active adjustments scoped to (student, period, section).
func (r *AdjustmentRepository) SumActive(ctx context.Context, studentID, period string, section int) (int, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM coin_adjustments
WHERE student_id = $1 AND period_key = $2 AND section_number = $3 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID, period, section); err != nil {
		return 0, fmt.Errorf("sum active adjustments: %w", err)
	}
	return total, nil
}

// SumActiveGlobal totals active GLOBAL adjustments for a student.
func (r *AdjustmentRepository) SumActiveGlobal(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM coin_adjustments
WHERE student_id = $1 AND period_key = $2 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID, models.GlobalPeriod); err != nil {
		return 0, fmt.Errorf("sum active global adjustments: %w", err)
	}
	return total, nil
}
