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

var overrideRowColumns = []string{"id", "student_id", "override_date", "day_number", "override_type", "reason", "created_by", "created_at", "updated_at"}

func TestOverrideRepositoryUpsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	date := time.Date(2025, 7, 20, 15, 4, 0, 0, time.UTC)
	created := time.Date(2025, 7, 21, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO overrides")).
		WithArgs(sqlmock.AnyArg(), "stu-1", time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 12, models.OverrideQualified,
			"second", "admin-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(overrideRowColumns).
			AddRow("ovr-existing", "stu-1", time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC), 12, "qualified", "second", "admin-1", created, time.Now()))

	override := &models.Override{
		StudentID:    "stu-1",
		Date:         date,
		DayNumber:    12,
		OverrideType: models.OverrideQualified,
		Reason:       "second",
		CreatedBy:    "admin-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), nil, override))
	require.Equal(t, "ovr-existing", override.ID)
	require.Equal(t, created, override.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, override_date")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(overrideRowColumns).
			AddRow("ovr-1", "stu-1", time.Now(), 4, "not_qualified", "absent", "admin-1", time.Now(), time.Now()))

	list, err := repo.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.OverrideNotQualified, list[0].OverrideType)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM overrides")).
		WithArgs("stu-1", 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	affected, err := repo.DeleteByDay(context.Background(), "stu-1", 4)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM overrides")).
		WithArgs("stu-1", 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = repo.DeleteByDay(context.Background(), "stu-1", 9)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
