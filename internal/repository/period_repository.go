package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

// PeriodRepository persists the period catalog.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func (r *PeriodRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert writes a period and replaces its excluded dates. Redefinition is last
// write wins.
func (r *PeriodRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, period *models.Period) error {
	target := r.exec(exec)
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const upsertQuery = `INSERT INTO periods (key, name, start_date, end_date, created_at, updated_at)
VALUES (:key, :name, :start_date, :end_date, :created_at, :updated_at)
ON CONFLICT (key)
DO UPDATE SET name = EXCLUDED.name, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, target, upsertQuery, period); err != nil {
		return fmt.Errorf("upsert period: %w", err)
	}

	if _, err := target.ExecContext(ctx, `DELETE FROM period_excluded_dates WHERE period_key = $1`, period.Key); err != nil {
		return fmt.Errorf("clear period excluded dates: %w", err)
	}
	const insertExcluded = `INSERT INTO period_excluded_dates (period_key, excluded_date) VALUES ($1, $2)`
	for _, date := range period.ExcludedDates {
		if _, err := target.ExecContext(ctx, insertExcluded, period.Key, models.TruncateDate(date)); err != nil {
			return fmt.Errorf("insert period excluded date: %w", err)
		}
	}
	return nil
}

// Get loads a period with its excluded dates.
func (r *PeriodRepository) Get(ctx context.Context, key string) (*models.Period, error) {
	const query = `SELECT key, name, start_date, end_date, created_at, updated_at FROM periods WHERE key = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, key); err != nil {
		return nil, err
	}

	const excludedQuery = `SELECT period_key, excluded_date FROM period_excluded_dates WHERE period_key = $1 ORDER BY excluded_date ASC`
	var rows []models.PeriodExcludedDate
	if err := r.db.SelectContext(ctx, &rows, excludedQuery, key); err != nil {
		return nil, fmt.Errorf("list period excluded dates: %w", err)
	}
	period.ExcludedDates = make([]time.Time, 0, len(rows))
	for _, row := range rows {
		period.ExcludedDates = append(period.ExcludedDates, row.Date)
	}
	return &period, nil
}

// List returns every period ordered by start date, with excluded dates attached.
func (r *PeriodRepository) List(ctx context.Context) ([]models.Period, error) {
	const query = `SELECT key, name, start_date, end_date, created_at, updated_at FROM periods ORDER BY start_date ASC, key ASC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}

	const excludedQuery = `SELECT period_key, excluded_date FROM period_excluded_dates ORDER BY period_key ASC, excluded_date ASC`
	var rows []models.PeriodExcludedDate
	if err := r.db.SelectContext(ctx, &rows, excludedQuery); err != nil {
		return nil, fmt.Errorf("list all period excluded dates: %w", err)
	}
	byKey := make(map[string][]time.Time, len(periods))
	for _, row := range rows {
		byKey[row.PeriodKey] = append(byKey[row.PeriodKey], row.Date)
	}
	for i := range periods {
		periods[i].ExcludedDates = byKey[periods[i].Key]
		if periods[i].ExcludedDates == nil {
			periods[i].ExcludedDates = []time.Time{}
		}
	}
	return periods, nil
}
