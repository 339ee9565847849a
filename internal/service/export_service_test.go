package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

type snapshotReaderStub struct {
	snapshot *models.FinancialAnalyticsSnapshot
}

func (s snapshotReaderStub) Snapshot(context.Context) (*models.FinancialAnalyticsSnapshot, error) {
	return s.snapshot, nil
}

type reportReaderStub struct {
	report *models.StudentCumulativeReportRecord
}

func (s reportReaderStub) Report(_ context.Context, studentID, session string) (*models.StudentCumulativeReportRecord, error) {
	if s.report == nil || s.report.StudentID != studentID || s.report.Session != session {
		return nil, appErrors.Clone(appErrors.ErrReportNotFound, "")
	}
	return s.report, nil
}

func newExportFixture(enabled bool) *ExportService {
	snapshot := BuildFinancialSnapshot([]interface{}{
		map[string]interface{}{"id": "p1", "studentId": "s1", "studentName": "Ada", "parentEmail": "p@x.io", "amount": 50.0, "status": "pending", "updatedAt": "2025-03-02T00:00:00Z"},
		map[string]interface{}{"id": "p2", "studentId": "s2", "studentName": "Bayo", "amount": 100.0, "status": "completed", "updatedAt": "2025-02-10T00:00:00Z"},
	}, analyticsNow, DefaultOnTimeDays)

	rows := []models.ExamResultRecord{
		resultRow("s1", "First Term", "Maths", 70, intPtr(2)),
		resultRow("s1", "Second Term", "Maths", 80, intPtr(1)),
	}
	report := BuildCumulativeReports(rows, "2024/2025", analyticsNow)[0]

	svc := NewExportService(snapshotReaderStub{snapshot: &snapshot}, reportReaderStub{report: &report}, ExportConfig{Enabled: enabled}, zap.NewNop(), nil, nil)
	svc.now = fixedClock(time.Date(2025, 3, 21, 8, 30, 0, 0, time.UTC))
	return svc
}

func TestDefaultersCSV(t *testing.T) {
	svc := newExportFixture(true)
	file, err := svc.DefaultersCSV(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "defaulters_20250321_083000.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Student ID,Student,Class"))
	assert.Equal(t, "s1,Ada,,,p@x.io,50.00,1,First Term,2025-03-02", lines[1])
}

func TestFeeCollectionCSV(t *testing.T) {
	svc := newExportFixture(true)
	file, err := svc.FeeCollectionCSV(context.Background(), models.PeriodAll)
	require.NoError(t, err)
	assert.Equal(t, "Month,Collected,Expected,Percentage\nFeb 2025,100.00,100.00,100.0\nMar 2025,0.00,50.00,0.0\n", string(file.Body))

	_, err = svc.FeeCollectionCSV(context.Background(), "weekly")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestReportCardPDF(t *testing.T) {
	svc := newExportFixture(true)
	file, err := svc.ReportCardPDF(context.Background(), "s1", "2024/2025")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "report-card_s1_2024-2025_20250321_083000.pdf", file.Filename)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))

	_, err = svc.ReportCardPDF(context.Background(), "s9", "2024/2025")
	assert.ErrorIs(t, err, appErrors.ErrReportNotFound)
}

func TestExportsDisabled(t *testing.T) {
	svc := newExportFixture(false)
	_, err := svc.DefaultersCSV(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
	_, err = svc.FeeCollectionCSV(context.Background(), models.PeriodAll)
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
	_, err = svc.ReportCardPDF(context.Background(), "s1", "2024/2025")
	assert.ErrorIs(t, err, appErrors.ErrFeatureDisabled)
}

func TestPositionOf(t *testing.T) {
	assert.Equal(t, "2 of 30", positionOf(2, 30))
	assert.Equal(t, "4", positionOf(4, 0))
}
