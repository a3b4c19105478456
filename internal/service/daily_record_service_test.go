package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type ingestFixture struct {
	db      *memLedger
	records *recordStub
	mock    sqlmock.Sqlmock
	cache   *invalidationRecorder
	svc     *DailyRecordService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	db := newMemLedger()
	db.periods["P1"] = models.Period{
		Key:           "P1",
		StartDate:     mustDate("2025-07-01"),
		EndDate:       mustDate("2025-07-31"),
		ExcludedDates: []time.Time{mustDate("2025-07-04")},
	}
	sqlDB, mock := newSQLTx(t)
	f := &ingestFixture{db: db, records: &recordStub{db: db}, mock: mock, cache: &invalidationRecorder{}}
	f.svc = NewDailyRecordService(f.records, &periodStub{db: db}, sqlDB, &auditRecorder{}, f.cache, nil, nil)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return f
}

func TestDailyRecordServiceIngestMarksExemptDays(t *testing.T) {
	f := newIngestFixture(t)
	expectCommit(f.mock, 1)

	result, err := f.svc.Ingest(context.Background(), "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 2, Date: "2025-07-02", Qualified: false, Minutes: 10, WouldHaveQualified: true},
		{Day: 1, Date: "2025-07-01", Qualified: true, Minutes: 45, Reason: "<i>solid</i> session"},
		{Day: 4, Date: "2025-07-04", Qualified: false, WouldHaveQualified: true},
	}}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, 1, result.Exempt)

	stored := f.db.records[models.Dataset{StudentID: "stu-1", PeriodKey: "P1", Section: 1}]
	require.Len(t, stored, 3)
	assert.Equal(t, 1, stored[0].Day)
	assert.Equal(t, "solid session", stored[0].Reason)
	assert.False(t, stored[1].WouldHaveQualified)
	assert.True(t, stored[2].IsExcluded)
	assert.True(t, stored[2].WouldHaveQualified)
	assert.Equal(t, []string{analyticsCachePattern}, f.cache.patterns)

	derived := DeriveProgress(stored, nil)
	assert.Equal(t, 2, derived.Coins)
	assert.Equal(t, 100.0, derived.PercentComplete)
}

func TestDailyRecordServiceIngestReplacesDataset(t *testing.T) {
	f := newIngestFixture(t)
	expectCommit(f.mock, 2)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 1, Date: "2025-07-01", Qualified: true},
		{Day: 2, Date: "2025-07-02", Qualified: true},
	}}, "admin-1")
	require.NoError(t, err)
	_, err = f.svc.Ingest(ctx, "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 1, Date: "2025-07-01", Qualified: false},
	}}, "admin-1")
	require.NoError(t, err)

	records, err := f.svc.ListRecords(ctx, models.Dataset{StudentID: "stu-1", PeriodKey: "P1", Section: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Qualified)

	datasets, err := f.svc.ListDatasets(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, datasets, 1)
}

func TestDailyRecordServiceIngestValidation(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 1, Date: "2025-07-01"},
		{Day: 1, Date: "2025-07-02"},
	}}, "admin-1")
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Ingest(ctx, "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 1, Date: "2025-07-01"},
		{Day: 2, Date: "2025-07-01"},
	}}, "admin-1")
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Ingest(ctx, "stu-1", "P1", 0, dto.IngestRecordsRequest{}, "admin-1")
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Ingest(ctx, "stu-1", "P404", 1, dto.IngestRecordsRequest{}, "admin-1")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestDailyRecordServiceIngestStoreFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.records.err = errors.New("deadlock")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Ingest(context.Background(), "stu-1", "P1", 1, dto.IngestRecordsRequest{Records: []dto.DailyRecordInput{
		{Day: 1, Date: "2025-07-01"},
	}}, "admin-1")
	requireCode(t, err, appErrors.ErrStoreUnavailable.Code)
	assert.Empty(t, f.cache.patterns)
}

func TestDailyRecordServiceFindRecordByDate(t *testing.T) {
	f := newIngestFixture(t)
	f.db.seedDays(models.Dataset{StudentID: "stu-1", PeriodKey: "P1", Section: 1}, mustDate("2025-07-01"), 3, 3)
	ctx := context.Background()

	records, err := f.svc.FindRecordByDate(ctx, "stu-1", "2025-07-02")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Day)

	_, err = f.svc.FindRecordByDate(ctx, "stu-1", "2025-09-01")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}
