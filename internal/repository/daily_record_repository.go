package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

const dailyRecordColumns = `id, student_id, period_key, section_number, day_number, record_date, qualified, minutes, topics,
       reason, is_excluded, would_have_qualified, created_at`

// DailyRecordRepository stores ingested daily activity per (student, period, section).
type DailyRecordRepository struct {
	db *sqlx.DB
}

// NewDailyRecordRepository constructs the repository.
func NewDailyRecordRepository(db *sqlx.DB) *DailyRecordRepository {
	return &DailyRecordRepository{db: db}
}

func (r *DailyRecordRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ReplaceDataset deletes the stored records of dataset and inserts records in
// their place. Callers wrap it in a transaction for atomic replacement.
func (r *DailyRecordRepository) ReplaceDataset(ctx context.Context, exec sqlx.ExtContext, dataset models.Dataset, records []models.DailyRecord) error {
	target := r.exec(exec)
	const deleteQuery = `DELETE FROM daily_records WHERE student_id = $1 AND period_key = $2 AND section_number = $3`
	if _, err := target.ExecContext(ctx, deleteQuery, dataset.StudentID, dataset.PeriodKey, dataset.Section); err != nil {
		return fmt.Errorf("clear daily records: %w", err)
	}

	const insertQuery = `INSERT INTO daily_records
	(id, student_id, period_key, section_number, day_number, record_date, qualified, minutes, topics, reason, is_excluded, would_have_qualified, created_at)
	VALUES (:id, :student_id, :period_key, :section_number, :day_number, :record_date, :qualified, :minutes, :topics, :reason, :is_excluded, :would_have_qualified, :created_at)`
	now := time.Now().UTC()
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.StudentID = dataset.StudentID
		rec.PeriodKey = dataset.PeriodKey
		rec.Section = dataset.Section
		rec.Date = models.TruncateDate(rec.Date)
		rec.CreatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, rec); err != nil {
			return fmt.Errorf("insert daily record day %d: %w", rec.Day, err)
		}
	}
	return nil
}

// ListDatasets returns every (period, section) dataset a student has records in.
func (r *DailyRecordRepository) ListDatasets(ctx context.Context, studentID string) ([]models.Dataset, error) {
	const query = `SELECT DISTINCT student_id, period_key, section_number FROM daily_records
WHERE student_id = $1 ORDER BY period_key ASC, section_number ASC`
	var datasets []models.Dataset
	if err := r.db.SelectContext(ctx, &datasets, query, studentID); err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return datasets, nil
}

// ListAllDatasets returns every stored dataset, optionally restricted to one
// (period, section) when period is not empty.
func (r *DailyRecordRepository) ListAllDatasets(ctx context.Context, period string, section *int) ([]models.Dataset, error) {
	query := `SELECT DISTINCT student_id, period_key, section_number FROM daily_records`
	args := make([]interface{}, 0, 2)
	if period != "" {
		args = append(args, period)
		query += ` WHERE period_key = $1`
		if section != nil {
			args = append(args, *section)
			query += ` AND section_number = $2`
		}
	}
	query += ` ORDER BY student_id ASC, period_key ASC, section_number ASC`
	var datasets []models.Dataset
	if err := r.db.SelectContext(ctx, &datasets, query, args...); err != nil {
		return nil, fmt.Errorf("list all datasets: %w", err)
	}
	return datasets, nil
}

// ListByDataset returns the records of a dataset ordered by day.
func (r *DailyRecordRepository) ListByDataset(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + ` FROM daily_records
WHERE student_id = $1 AND period_key = $2 AND section_number = $3 ORDER BY day_number ASC`
	var records []models.DailyRecord
	if err := r.db.SelectContext(ctx, &records, query, dataset.StudentID, dataset.PeriodKey, dataset.Section); err != nil {
		return nil, fmt.Errorf("list daily records: %w", err)
	}
	return records, nil
}

// FindByStudentDate returns the records of a student on a calendar date across
// all datasets.
func (r *DailyRecordRepository) FindByStudentDate(ctx context.Context, studentID string, date time.Time) ([]models.DailyRecord, error) {
	query := `SELECT ` + dailyRecordColumns + ` FROM daily_records
WHERE student_id = $1 AND record_date = $2 ORDER BY period_key ASC, section_number ASC`
	var records []models.DailyRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, models.TruncateDate(date)); err != nil {
		return nil, fmt.Errorf("find daily records by date: %w", err)
	}
	return records, nil
}
