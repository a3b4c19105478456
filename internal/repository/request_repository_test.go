package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

var requestRowColumns = []string{"id", "student_id", "period_key", "section_number", "type", "details", "day_number", "override_date",
	"status", "admin_notes", "processed_at", "processed_by", "created_at"}

func TestRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.StudentRequest{
		StudentID: "stu-1",
		Period:    "summer-2025",
		Section:   1,
		Type:      models.RequestQuizReplacement,
		Details:   "missed quiz 3",
	}
	require.NoError(t, repo.Create(context.Background(), nil, req))
	require.NotEmpty(t, req.ID)
	require.Equal(t, models.RequestStatusPending, req.Status)

	rows := sqlmock.NewRows(requestRowColumns).
		AddRow(req.ID, "stu-1", "summer-2025", 1, "quiz_replacement", "missed quiz 3", nil, nil, "pending", nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_key")).
		WithArgs(req.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), nil, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestQuizReplacement, found.Type)
	require.Nil(t, found.DayNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	day := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(requestRowColumns).
		AddRow("req-1", "stu-1", "summer-2025", 1, "override_request", "please review", 12, day, "pending", nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_key")).
		WithArgs("stu-1", "pending", "override_request").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.RequestFilter{
		StudentID: "stu-1",
		Status:    []models.RequestStatus{models.RequestStatusPending},
		Type:      models.RequestOverride,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 12, *list[0].DayNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCountIgnoresPaging(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_requests WHERE student_id = $1 AND status IN ($2,$3)")).
		WithArgs("stu-1", "pending", "approved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := NewRequestRepository(db).Count(context.Background(), models.RequestFilter{
		StudentID: "stu-1",
		Status:    []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved},
		Limit:     5,
		Offset:    10,
	})
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStatusOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	params := UpdateRequestStatusParams{
		ID:          "req-1",
		Status:      models.RequestStatusApproved,
		AdminNotes:  strPtr("ok"),
		ProcessedBy: "admin-1",
		ProcessedAt: time.Now(),
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_requests")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), nil, params))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_requests")).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), nil, params)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListPendingOverrides(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	rows := sqlmock.NewRows(requestRowColumns).
		AddRow("req-2", "stu-1", "summer-2025", 1, "override_request", "needs review", 3, time.Now(), "pending", nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_key")).
		WithArgs("stu-1", models.RequestOverride, models.RequestStatusPending).
		WillReturnRows(rows)

	list, err := repo.ListPendingOverrides(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
