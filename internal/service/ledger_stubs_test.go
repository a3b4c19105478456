package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/internal/repository"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

// memLedger is an in-memory stand-in for the Postgres tables. The stubs below
// ignore the transaction handle; sqlmock only verifies begin and commit.
type memLedger struct {
	seq         int
	records     map[models.Dataset][]models.DailyRecord
	overrides   map[string]models.Override
	adjustments []models.CoinAdjustment
	requests    map[string]*models.StudentRequest
	periods     map[string]models.Period
}

func newMemLedger() *memLedger {
	return &memLedger{
		records:   make(map[models.Dataset][]models.DailyRecord),
		overrides: make(map[string]models.Override),
		requests:  make(map[string]*models.StudentRequest),
		periods:   make(map[string]models.Period),
	}
}

func (m *memLedger) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// seedDays stores count records for a dataset, the first qualified of which are qualified.
func (m *memLedger) seedDays(ds models.Dataset, start time.Time, count, qualified int) {
	records := make([]models.DailyRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, models.DailyRecord{
			ID:        m.nextID("rec"),
			StudentID: ds.StudentID,
			PeriodKey: ds.PeriodKey,
			Section:   ds.Section,
			Day:       i + 1,
			Date:      start.AddDate(0, 0, i),
			Qualified: i < qualified,
			Minutes:   40,
		})
	}
	m.records[ds] = records
}

func (m *memLedger) addAdjustment(studentID, period string, section, amount int) {
	m.adjustments = append(m.adjustments, models.CoinAdjustment{
		ID:        m.nextID("adj"),
		StudentID: studentID,
		Period:    period,
		Section:   section,
		Amount:    amount,
		IsActive:  true,
	})
}

type recordStub struct {
	db  *memLedger
	err error
}

func (s *recordStub) ReplaceDataset(ctx context.Context, exec sqlx.ExtContext, dataset models.Dataset, records []models.DailyRecord) error {
	if s.err != nil {
		return s.err
	}
	stored := make([]models.DailyRecord, len(records))
	for i, rec := range records {
		rec.ID = s.db.nextID("rec")
		rec.StudentID = dataset.StudentID
		rec.PeriodKey = dataset.PeriodKey
		rec.Section = dataset.Section
		stored[i] = rec
	}
	s.db.records[dataset] = stored
	return nil
}

func (s *recordStub) ListDatasets(ctx context.Context, studentID string) ([]models.Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Dataset
	for ds := range s.db.records {
		if ds.StudentID == studentID {
			out = append(out, ds)
		}
	}
	sortDatasets(out)
	return out, nil
}

func (s *recordStub) ListAllDatasets(ctx context.Context, period string, section *int) ([]models.Dataset, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Dataset
	for ds := range s.db.records {
		if period != "" && ds.PeriodKey != period {
			continue
		}
		if section != nil && ds.Section != *section {
			continue
		}
		out = append(out, ds)
	}
	sortDatasets(out)
	return out, nil
}

func (s *recordStub) ListByDataset(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.DailyRecord(nil), s.db.records[dataset]...), nil
}

func (s *recordStub) FindByStudentDate(ctx context.Context, studentID string, date time.Time) ([]models.DailyRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.DailyRecord
	for ds, records := range s.db.records {
		if ds.StudentID != studentID {
			continue
		}
		for _, rec := range records {
			if models.DateKey(rec.Date) == models.DateKey(date) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func sortDatasets(ds []models.Dataset) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].StudentID != ds[j].StudentID {
			return ds[i].StudentID < ds[j].StudentID
		}
		if ds[i].PeriodKey != ds[j].PeriodKey {
			return ds[i].PeriodKey < ds[j].PeriodKey
		}
		return ds[i].Section < ds[j].Section
	})
}

type overrideStub struct {
	db        *memLedger
	upsertErr error
	upserts   int
}

func overrideKey(studentID string, date time.Time) string {
	return studentID + "|" + models.DateKey(date)
}

func (s *overrideStub) Upsert(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	key := overrideKey(override.StudentID, override.Date)
	if existing, ok := s.db.overrides[key]; ok {
		override.ID = existing.ID
		override.CreatedAt = existing.CreatedAt
	} else {
		override.ID = s.db.nextID("ovr")
	}
	s.db.overrides[key] = *override
	return nil
}

func (s *overrideStub) ListByStudent(ctx context.Context, studentID string) ([]models.Override, error) {
	var out []models.Override
	for _, o := range s.db.overrides {
		if o.StudentID == studentID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *overrideStub) DeleteByDay(ctx context.Context, studentID string, dayNumber int) (int64, error) {
	var removed int64
	for key, o := range s.db.overrides {
		if o.StudentID == studentID && o.DayNumber == dayNumber {
			delete(s.db.overrides, key)
			removed++
		}
	}
	if removed == 0 {
		return 0, sql.ErrNoRows
	}
	return removed, nil
}

type adjustmentStub struct {
	db        *memLedger
	createErr error
	sumErr    error
}

func (s *adjustmentStub) Create(ctx context.Context, exec sqlx.ExtContext, adj *models.CoinAdjustment) error {
	if s.createErr != nil {
		return s.createErr
	}
	adj.ID = s.db.nextID("adj")
	adj.IsActive = true
	s.db.adjustments = append(s.db.adjustments, *adj)
	return nil
}

func (s *adjustmentStub) GetByID(ctx context.Context, id string) (*models.CoinAdjustment, error) {
	for i := range s.db.adjustments {
		if s.db.adjustments[i].ID == id {
			adj := s.db.adjustments[i]
			return &adj, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *adjustmentStub) List(ctx context.Context, filter models.AdjustmentFilter) ([]models.CoinAdjustment, error) {
	var out []models.CoinAdjustment
	for _, adj := range s.db.adjustments {
		if adj.StudentID != filter.StudentID || (!filter.IncludeInactive && !adj.IsActive) {
			continue
		}
		out = append(out, adj)
	}
	return out, nil
}

func (s *adjustmentStub) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error) {
	for i := range s.db.adjustments {
		if s.db.adjustments[i].ID != id {
			continue
		}
		if !s.db.adjustments[i].IsActive || s.db.adjustments[i].RequestID != nil {
			return false, nil
		}
		s.db.adjustments[i].IsActive = false
		return true, nil
	}
	return false, sql.ErrNoRows
}

func (s *adjustmentStub) DeactivateByRequest(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	total := 0
	for i := range s.db.adjustments {
		adj := &s.db.adjustments[i]
		if adj.IsActive && adj.RequestID != nil && *adj.RequestID == requestID {
			adj.IsActive = false
			total += adj.Amount
		}
	}
	return total, nil
}

func (s *adjustmentStub) SumActive(ctx context.Context, studentID, period string, section int) (int, error) {
	if s.sumErr != nil {
		return 0, s.sumErr
	}
	total := 0
	for _, adj := range s.db.adjustments {
		if adj.IsActive && adj.StudentID == studentID && adj.Period == period && adj.Section == section {
			total += adj.Amount
		}
	}
	return total, nil
}

func (s *adjustmentStub) SumActiveGlobal(ctx context.Context, studentID string) (int, error) {
	if s.sumErr != nil {
		return 0, s.sumErr
	}
	total := 0
	for _, adj := range s.db.adjustments {
		if adj.IsActive && adj.StudentID == studentID && adj.Period == models.GlobalPeriod {
			total += adj.Amount
		}
	}
	return total, nil
}

type requestStub struct {
	db        *memLedger
	createErr error
}

func (s *requestStub) Create(ctx context.Context, exec sqlx.ExtContext, req *models.StudentRequest) error {
	if s.createErr != nil {
		return s.createErr
	}
	req.ID = s.db.nextID("req")
	req.CreatedAt = time.Now().UTC()
	stored := *req
	s.db.requests[req.ID] = &stored
	return nil
}

func (s *requestStub) GetByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.StudentRequest, error) {
	req, ok := s.db.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (s *requestStub) List(ctx context.Context, filter models.RequestFilter) ([]models.StudentRequest, error) {
	var out []models.StudentRequest
	for _, req := range s.db.requests {
		if filter.StudentID != "" && req.StudentID != filter.StudentID {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *requestStub) Count(ctx context.Context, filter models.RequestFilter) (int, error) {
	list, err := s.List(ctx, filter)
	return len(list), err
}

func (s *requestStub) ListPendingOverrides(ctx context.Context, studentID string) ([]models.StudentRequest, error) {
	var out []models.StudentRequest
	for _, req := range s.db.requests {
		if req.StudentID == studentID && req.Type == models.RequestOverride && req.Status == models.RequestStatusPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *requestStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, params repository.UpdateRequestStatusParams) error {
	req, ok := s.db.requests[params.ID]
	if !ok || req.Status != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	req.Status = params.Status
	req.AdminNotes = params.AdminNotes
	req.ProcessedBy = &params.ProcessedBy
	processedAt := params.ProcessedAt
	req.ProcessedAt = &processedAt
	return nil
}

type periodStub struct {
	db     *memLedger
	getErr error
}

func (s *periodStub) Upsert(ctx context.Context, exec sqlx.ExtContext, period *models.Period) error {
	s.db.periods[period.Key] = *period
	return nil
}

func (s *periodStub) Get(ctx context.Context, key string) (*models.Period, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.db.periods[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (s *periodStub) List(ctx context.Context) ([]models.Period, error) {
	out := make([]models.Period, 0, len(s.db.periods))
	for _, p := range s.db.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type auditRecorder struct {
	logs []*models.AuditLog
	err  error
}

func (a *auditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return a.err
}

func (a *auditRecorder) actions() []string {
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type invalidationRecorder struct {
	patterns []string
}

func (r *invalidationRecorder) Invalidate(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

// newSQLTx returns a sqlmock-backed transaction provider.
func newSQLTx(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func expectCommit(mock sqlmock.Sqlmock, times int) {
	for i := 0; i < times; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func mustDate(raw string) time.Time {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func intRef(v int) *int { return &v }

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code, appErr.Error())
}
