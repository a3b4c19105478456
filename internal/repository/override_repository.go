package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

// OverrideRepository persists per-date qualification overrides.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs the repository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert creates or replaces the override for (student_id, override_date). The
// stored row is written back into override, including the id of an existing row.
func (r *OverrideRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	override.Date = models.TruncateDate(override.Date)
	override.CreatedAt = now
	override.UpdatedAt = now

	const query = `INSERT INTO overrides (id, student_id, override_date, day_number, override_type, reason, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (student_id, override_date)
DO UPDATE SET day_number = EXCLUDED.day_number, override_type = EXCLUDED.override_type, reason = EXCLUDED.reason,
              created_by = EXCLUDED.created_by, updated_at = EXCLUDED.updated_at
RETURNING id, student_id, override_date, day_number, override_type, reason, created_by, created_at, updated_at`
	var stored models.Override
	if err := sqlx.GetContext(ctx, r.exec(exec), &stored, query,
		override.ID, override.StudentID, override.Date, override.DayNumber, override.OverrideType,
		override.Reason, override.CreatedBy, override.CreatedAt, override.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	*override = stored
	return nil
}

// ListByStudent returns every override of a student ordered by date.
func (r *OverrideRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Override, error) {
	const query = `SELECT id, student_id, override_date, day_number, override_type, reason, created_by, created_at, updated_at
FROM overrides WHERE student_id = $1 ORDER BY override_date ASC`
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, studentID); err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	return overrides, nil
}

// DeleteByDay removes the overrides of a student recorded for dayNumber.
func (r *OverrideRepository) DeleteByDay(ctx context.Context, studentID string, dayNumber int) (int64, error) {
	const query = `DELETE FROM overrides WHERE student_id = $1 AND day_number = $2`
	result, err := r.db.ExecContext(ctx, query, studentID, dayNumber)
	if err != nil {
		return 0, fmt.Errorf("delete override: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("override rows affected: %w", err)
	}
	if affected == 0 {
		return 0, sql.ErrNoRows
	}
	return affected, nil
}
