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

func TestDailyRecordRepositoryReplaceDataset(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyRecordRepository(db)
	dataset := models.Dataset{StudentID: "stu-1", PeriodKey: "summer-2025", Section: 1}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM daily_records")).
		WithArgs("stu-1", "summer-2025", 1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_records")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO daily_records")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.DailyRecord{
		{Day: 1, Date: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), Qualified: true, Minutes: 40, Topics: 2},
		{Day: 2, Date: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), Minutes: 5},
	}

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceDataset(context.Background(), tx, dataset, records))
	require.NoError(t, tx.Commit())

	require.Equal(t, "stu-1", records[0].StudentID)
	require.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	require.NotEmpty(t, records[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyRecordRepositoryQueries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT student_id, period_key, section_number FROM daily_records")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "period_key", "section_number"}).
			AddRow("stu-1", "spring-2025", 1).
			AddRow("stu-1", "summer-2025", 2))
	datasets, err := repo.ListDatasets(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, datasets, 2)
	require.Equal(t, 2, datasets[1].Section)

	columns := []string{"id", "student_id", "period_key", "section_number", "day_number", "record_date", "qualified", "minutes", "topics",
		"reason", "is_excluded", "would_have_qualified", "created_at"}
	date := time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, period_key, section_number, day_number")).
		WithArgs("stu-1", date).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("rec-1", "stu-1", "summer-2025", 2, 12, date, false, 45, 1, "short topics", false, false, time.Now()))
	found, err := repo.FindByStudentDate(context.Background(), "stu-1", date.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, 45, found[0].Minutes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDailyRecordRepositoryListAllDatasetsFiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDailyRecordRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT student_id, period_key, section_number FROM daily_records WHERE period_key = $1 AND section_number = $2")).
		WithArgs("summer-2025", 1).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "period_key", "section_number"}).AddRow("stu-1", "summer-2025", 1))

	section := 1
	datasets, err := repo.ListAllDatasets(context.Background(), "summer-2025", &section)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
