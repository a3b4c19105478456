package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/dto"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/database"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/sanitize"
)

type dailyRecordStore interface {
	ReplaceDataset(ctx context.Context, exec sqlx.ExtContext, dataset models.Dataset, records []models.DailyRecord) error
	ListDatasets(ctx context.Context, studentID string) ([]models.Dataset, error)
	ListByDataset(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error)
	FindByStudentDate(ctx context.Context, studentID string, date time.Time) ([]models.DailyRecord, error)
}

type periodReader interface {
	Get(ctx context.Context, key string) (*models.Period, error)
}

// DailyRecordService ingests already-parsed activity days. Parsing uploaded
// files happens upstream; each ingestion replaces the whole dataset.
type DailyRecordService struct {
	repo      dailyRecordStore
	periods   periodReader
	tx        txProvider
	audit     auditLogger
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDailyRecordService constructs the service.
func NewDailyRecordService(repo dailyRecordStore, periods periodReader, tx txProvider, audit auditLogger, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *DailyRecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyRecordService{repo: repo, periods: periods, tx: tx, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Ingest replaces the dataset of (studentID, periodKey, section).
func (s *DailyRecordService) Ingest(ctx context.Context, studentID, periodKey string, section int, req dto.IngestRecordsRequest, actorID string) (*dto.IngestRecordsResult, error) {
	if studentID == "" || !models.ValidSection(section) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and a positive sectionNumber are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid records payload")
	}
	period, err := s.periods.Get(ctx, periodKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Store(err, "failed to load period")
	}

	dataset := models.Dataset{StudentID: studentID, PeriodKey: period.Key, Section: section}
	records := make([]models.DailyRecord, 0, len(req.Records))
	days := make(map[int]bool, len(req.Records))
	dates := make(map[string]bool, len(req.Records))
	exempt := 0
	for _, in := range req.Records {
		date, err := models.ParseDate(in.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "record date must be YYYY-MM-DD")
		}
		key := models.DateKey(date)
		if days[in.Day] || dates[key] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate record for day %d (%s)", in.Day, key))
		}
		days[in.Day] = true
		dates[key] = true

		excluded := period.IsExcluded(date)
		if excluded {
			exempt++
		}
		records = append(records, models.DailyRecord{
			Day:                in.Day,
			Date:               date,
			Qualified:          in.Qualified,
			Minutes:            in.Minutes,
			Topics:             in.Topics,
			Reason:             sanitize.Text(in.Reason),
			IsExcluded:         excluded,
			WouldHaveQualified: excluded && in.WouldHaveQualified,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Day < records[j].Day })

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.repo.ReplaceDataset(ctx, tx, dataset, records)
	})
	if err != nil {
		return nil, appErrors.Store(err, "failed to store daily records")
	}

	result := &dto.IngestRecordsResult{
		StudentID: studentID,
		Period:    period.Key,
		Section:   section,
		Stored:    len(records),
		Exempt:    exempt,
	}
	s.emitAudit(ctx, actorID, result)
	invalidateAnalytics(ctx, s.cache)
	s.logger.Info("daily records ingested",
		zap.String("student_id", studentID),
		zap.String("period", period.Key),
		zap.Int("section", section),
		zap.Int("stored", len(records)),
	)
	return result, nil
}

// ListDatasets returns the datasets stored for a student.
func (s *DailyRecordService) ListDatasets(ctx context.Context, studentID string) ([]models.Dataset, error) {
	datasets, err := s.repo.ListDatasets(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list datasets")
	}
	if datasets == nil {
		datasets = []models.Dataset{}
	}
	return datasets, nil
}

// ListRecords returns the stored, un-overridden records of a dataset.
func (s *DailyRecordService) ListRecords(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error) {
	records, err := s.repo.ListByDataset(ctx, dataset)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list daily records")
	}
	if records == nil {
		records = []models.DailyRecord{}
	}
	return records, nil
}

// FindRecordByDate returns every stored record of the student on date, one per
// dataset that covers it.
func (s *DailyRecordService) FindRecordByDate(ctx context.Context, studentID, rawDate string) ([]models.DailyRecord, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	records, err := s.repo.FindByStudentDate(ctx, studentID, date)
	if err != nil {
		return nil, appErrors.Store(err, "failed to find daily record")
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no record on that date")
	}
	return records, nil
}

func (s *DailyRecordService) emitAudit(ctx context.Context, actorID string, result *dto.IngestRecordsResult) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(result)
	resourceID := fmt.Sprintf("%s:%s:%d", result.StudentID, result.Period, result.Section)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRecordsIngest,
		Resource:   "daily_records",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "daily-record-service",
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
