package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-coins-api/internal/models"
	appErrors "github.com/noah-isme/sma-coins-api/pkg/errors"
	"github.com/noah-isme/sma-coins-api/pkg/export"
)

func newExportFixture() (*memLedger, *ExportService) {
	db := newMemLedger()
	records := &recordStub{db: db}
	progress := NewProgressService(records, &overrideStub{db: db}, nil)
	balances := NewBalanceService(progress, &adjustmentStub{db: db}, nil, nil)
	svc := NewExportService(records, progress, balances, nil)
	svc.now = func() time.Time { return time.Date(2025, 7, 31, 8, 0, 0, 0, time.UTC) }
	return db, svc
}

func TestExportServiceBalanceReportCSV(t *testing.T) {
	db, svc := newExportFixture()
	db.seedDays(models.Dataset{StudentID: "stu-1", PeriodKey: "P1", Section: 1}, mustDate("2025-07-01"), 3, 1)
	db.addAdjustment("stu-1", models.GlobalPeriod, 0, 4)

	res, err := svc.BalanceReport(context.Background(), "P1", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)
	assert.Equal(t, "balances_P1_20250731T080000.csv", res.Filename)

	rows, err := csv.NewReader(strings.NewReader(string(res.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, balanceReportHeaders, rows[0])
	assert.Equal(t, []string{"stu-1", "P1", "1", "33.3", "1", "5"}, rows[1])
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	_, svc := newExportFixture()
	_, err := svc.BalanceReport(context.Background(), "", export.Format("docx"))
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "all", sanitizeFilename(""))
	assert.Equal(t, "2025-S1_term", sanitizeFilename("2025/S1 term"))
}
