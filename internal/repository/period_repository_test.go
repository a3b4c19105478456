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

func TestPeriodRepositoryUpsertReplacesExcludedDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPeriodRepository(db)
	holiday := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO periods")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM period_excluded_dates")).
		WithArgs("summer-2025").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO period_excluded_dates")).
		WithArgs("summer-2025", holiday).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.Period{
		Key:           "summer-2025",
		Name:          "Summer 2025",
		StartDate:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
		ExcludedDates: []time.Time{holiday},
	}
	require.NoError(t, repo.Upsert(context.Background(), nil, period))
	require.False(t, period.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryGetAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPeriodRepository(db)
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	holiday := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	periodColumns := []string{"key", "name", "start_date", "end_date", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, name, start_date, end_date, created_at, updated_at FROM periods WHERE key = $1")).
		WithArgs("summer-2025").
		WillReturnRows(sqlmock.NewRows(periodColumns).AddRow("summer-2025", "Summer", start, end, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT period_key, excluded_date FROM period_excluded_dates WHERE period_key = $1")).
		WithArgs("summer-2025").
		WillReturnRows(sqlmock.NewRows([]string{"period_key", "excluded_date"}).AddRow("summer-2025", holiday))

	period, err := repo.Get(context.Background(), "summer-2025")
	require.NoError(t, err)
	require.True(t, period.IsExcluded(holiday))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT key, name, start_date, end_date, created_at, updated_at FROM periods ORDER BY")).
		WillReturnRows(sqlmock.NewRows(periodColumns).
			AddRow("spring-2025", "Spring", start.AddDate(0, -4, 0), start.AddDate(0, 0, -7), time.Now(), time.Now()).
			AddRow("summer-2025", "Summer", start, end, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT period_key, excluded_date FROM period_excluded_dates ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"period_key", "excluded_date"}).AddRow("summer-2025", holiday))

	periods, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 2)
	require.Empty(t, periods[0].ExcludedDates)
	require.Len(t, periods[1].ExcludedDates, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
