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

const requestColumns = `id, student_id, period_key, section_number, type, details, day_number, override_date,
       status, admin_notes, processed_at, processed_by, created_at`

// RequestRepository persists student requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new request row.
func (r *RequestRepository) Create(ctx context.Context, exec sqlx.ExtContext, req *models.StudentRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO student_requests
	(id, student_id, period_key, section_number, type, details, day_number, override_date, status, admin_notes, processed_at, processed_by, created_at)
	VALUES (:id, :student_id, :period_key, :section_number, :type, :details, :day_number, :override_date, :status, :admin_notes, :processed_at, :processed_by, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, req); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.StudentRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM student_requests WHERE id = $1`
	var req models.StudentRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, error) {
	where, args := requestWhere(filter)

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM student_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		requestColumns, where, limit, offset)

	var requests []models.StudentRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// Count returns how many requests match filter, ignoring Limit and Offset.
func (r *RequestRepository) Count(ctx context.Context, filter models.RequestFilter) (int, error) {
	where, args := requestWhere(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM student_requests`+where, args...); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return total, nil
}

func requestWhere(filter models.RequestFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	bind := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.StudentID != "" {
		conditions = append(conditions, "student_id = "+bind(filter.StudentID))
	}
	if len(filter.Status) > 0 {
		holders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			holders[i] = bind(status)
		}
		conditions = append(conditions, "status IN ("+strings.Join(holders, ",")+")")
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+bind(filter.Type))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListPendingOverrides returns the pending override requests of a student, oldest first.
func (r *RequestRepository) ListPendingOverrides(ctx context.Context, studentID string) ([]models.StudentRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM student_requests
WHERE student_id = $1 AND type = $2 AND status = $3 ORDER BY created_at ASC`
	var requests []models.StudentRequest
	if err := r.db.SelectContext(ctx, &requests, query, studentID, models.RequestOverride, models.RequestStatusPending); err != nil {
		return nil, fmt.Errorf("list pending override requests: %w", err)
	}
	return requests, nil
}

// UpdateRequestStatusParams groups the columns written by a transition.
type UpdateRequestStatusParams struct {
	ID          string
	Status      models.RequestStatus
	AdminNotes  *string
	ProcessedBy string
	ProcessedAt time.Time
}

// UpdateStatus moves a pending request to a terminal status. It returns
// sql.ErrNoRows when the request is missing or no longer pending.
func (r *RequestRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, params UpdateRequestStatusParams) error {
	query := fmt.Sprintf(`UPDATE student_requests
SET status = :status, admin_notes = :admin_notes, processed_by = :processed_by, processed_at = :processed_at
WHERE id = :id AND status = '%s'`, models.RequestStatusPending)
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, map[string]interface{}{
		"id":           params.ID,
		"status":       params.Status,
		"admin_notes":  params.AdminNotes,
		"processed_by": params.ProcessedBy,
		"processed_at": params.ProcessedAt,
	})
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
