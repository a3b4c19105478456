package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
)

type datasetReader interface {
	ListDatasets(ctx context.Context, studentID string) ([]models.Dataset, error)
	ListByDataset(ctx context.Context, dataset models.Dataset) ([]models.DailyRecord, error)
}

type overrideReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Override, error)
}

// ProgressService loads stored datasets and overrides and runs the derivation
// on every read. Overrides are never written back onto the records.
type ProgressService struct {
	records   datasetReader
	overrides overrideReader
	logger    *zap.Logger
}

// NewProgressService constructs the service.
func NewProgressService(records datasetReader, overrides overrideReader, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{records: records, overrides: overrides, logger: logger}
}

// StudentProgress derives every dataset the student appears in.
func (s *ProgressService) StudentProgress(ctx context.Context, studentID string) ([]models.DatasetProgress, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	datasets, err := s.records.ListDatasets(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list datasets")
	}
	if len(datasets) == 0 {
		return []models.DatasetProgress{}, nil
	}
	overrides, err := s.overrides.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load overrides")
	}

	result := make([]models.DatasetProgress, 0, len(datasets))
	for _, ds := range datasets {
		item, err := s.derive(ctx, ds, overrides)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, nil
}

// DatasetProgress derives a single dataset.
func (s *ProgressService) DatasetProgress(ctx context.Context, dataset models.Dataset) (*models.DatasetProgress, error) {
	overrides, err := s.overrides.ListByStudent(ctx, dataset.StudentID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load overrides")
	}
	return s.derive(ctx, dataset, overrides)
}

func (s *ProgressService) derive(ctx context.Context, dataset models.Dataset, overrides []models.Override) (*models.DatasetProgress, error) {
	records, err := s.records.ListByDataset(ctx, dataset)
	if err != nil {
		return nil, appErrors.Store(err, "failed to load daily records")
	}
	return &models.DatasetProgress{
		Dataset:  dataset,
		Progress: DeriveProgress(records, overrides),
		Days:     ApplyOverrides(records, overrides),
	}, nil
}
