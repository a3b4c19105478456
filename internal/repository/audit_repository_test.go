package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

func TestAuditRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAuditRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{
		UserID:     strPtr("admin-1"),
		Action:     models.AuditActionRequestApprove,
		Resource:   "student_request",
		ResourceID: strPtr("req-1"),
	}
	require.NoError(t, repo.CreateAuditLog(context.Background(), entry))
	require.NotEmpty(t, entry.ID)

	columns := []string{"id", "user_id", "action", "resource", "resource_id", "old_values", "new_values", "ip_address", "user_agent", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, action")).
		WithArgs("student_request", "req-1", 50).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(entry.ID, "admin-1", "REQUEST_APPROVE", "student_request", "req-1", nil, nil, "", "", time.Now()))

	logs, err := repo.ListByResource(context.Background(), "student_request", "req-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
