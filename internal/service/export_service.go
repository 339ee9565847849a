package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
	"github.com/umarmf343/vea-2025-sub003/pkg/export"
)

type financialSnapshotReader interface {
	Snapshot(ctx context.Context) (*models.FinancialAnalyticsSnapshot, error)
}

type cumulativeReportReader interface {
	Report(ctx context.Context, studentID, session string) (*models.StudentCumulativeReportRecord, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders derived views as CSV or PDF downloads.
type ExportService struct {
	financial  financialSnapshotReader
	cumulative cumulativeReportReader
	csv        csvRenderer
	pdf        pdfRenderer
	cfg        ExportConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(financial financialSnapshotReader, cumulative cumulativeReportReader, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{financial: financial, cumulative: cumulative, csv: csv, pdf: pdf, cfg: cfg, logger: logger, now: time.Now}
}

// DefaultersCSV renders the defaulter list.
func (s *ExportService) DefaultersCSV(ctx context.Context) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	snapshot, err := s.financial.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Student ID", "Student", "Class", "Parent", "Parent Email", "Amount Owed", "Payments", "Term", "Last Payment"}}
	for _, d := range snapshot.Defaulters {
		last := ""
		if d.LastPaymentDate != nil {
			last = d.LastPaymentDate.Format("2006-01-02")
		}
		data.Append(
			derefString(d.StudentID),
			d.StudentName,
			derefString(d.ClassName),
			derefString(d.ParentName),
			derefString(d.ParentEmail),
			formatAmount(d.Amount),
			strconv.Itoa(d.PaymentsCount),
			d.Term,
			last,
		)
	}
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "render defaulters csv")
	}
	return &ExportFile{Filename: s.filename("defaulters", "csv"), ContentType: "text/csv", Body: body}, nil
}

// FeeCollectionCSV renders the monthly collection table of one period.
func (s *ExportService) FeeCollectionCSV(ctx context.Context, period models.PeriodKey) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	if !IsPeriodKey(period) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown period "+string(period))
	}
	snapshot, err := s.financial.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{Headers: []string{"Month", "Collected", "Expected", "Percentage"}}
	for _, entry := range snapshot.Periods[period].FeeCollection {
		data.Append(entry.Month, formatAmount(entry.Collected), formatAmount(entry.Expected), strconv.FormatFloat(entry.Percentage, 'f', 1, 64))
	}
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "render fee collection csv")
	}
	return &ExportFile{Filename: s.filename("fee-collection_"+string(period), "csv"), ContentType: "text/csv", Body: body}, nil
}

// ReportCardPDF renders one student's cumulative report card.
func (s *ExportService) ReportCardPDF(ctx context.Context, studentID, session string) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "exports are disabled")
	}
	report, err := s.cumulative.Report(ctx, studentID, session)
	if err != nil {
		return nil, err
	}

	terms := export.Dataset{Headers: []string{"Term", "Average", "Grade", "Position", "Subjects"}}
	for _, term := range report.Terms {
		terms.Append(term.Term, formatScore(term.OverallAverage), term.OverallGrade, positionOf(term.ClassPosition, term.TotalStudents), strconv.Itoa(len(term.Subjects)))
	}
	subjects := export.Dataset{Headers: []string{"Subject", "Average", "Grade", "Trend"}}
	for _, subject := range report.SubjectAverages {
		subjects.Append(subject.Name, formatScore(subject.Average), subject.Grade, string(subject.Trend))
	}

	doc := export.Document{
		Title:    "Cumulative Report Card",
		Subtitle: report.Session + " Session",
		Facts: [][2]string{
			{"Student", report.StudentName},
			{"Student ID", report.StudentID},
			{"Class", report.ClassName},
			{"Cumulative Average", formatScore(report.CumulativeAverage)},
			{"Cumulative Grade", report.CumulativeGrade},
			{"Cumulative Position", positionOf(report.CumulativePosition, report.TotalStudents)},
		},
		Sections: []export.Section{
			{Heading: "Term Summary", Table: terms, Widths: []float64{3, 2, 1.5, 2, 1.5}},
			{Heading: "Subject Averages", Table: subjects, Widths: []float64{4, 2, 1.5, 1.5}},
		},
		Footer: "Generated " + report.GeneratedAt.UTC().Format(time.RFC1123),
	}
	body, err := s.pdf.Render(doc)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "render report card")
	}
	s.logger.Debug("report card rendered", zap.String("student_id", studentID), zap.String("session", session), zap.Int("bytes", len(body)))
	return &ExportFile{Filename: s.filename("report-card_"+studentID+"_"+session, "pdf"), ContentType: "application/pdf", Body: body}, nil
}

func (s *ExportService) filename(base, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(base), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func positionOf(position, total int) string {
	if total > 0 {
		return fmt.Sprintf("%d of %d", position, total)
	}
	return strconv.Itoa(position)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
