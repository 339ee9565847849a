package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

// CumulativeReportService persists the per-student cumulative report cards.
type CumulativeReportService struct {
	docs     DocumentStore
	metrics  RebuildObserver
	notifier ChangeNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewCumulativeReportService constructs the service.
func NewCumulativeReportService(docs DocumentStore, metrics RebuildObserver, notifier ChangeNotifier, logger *zap.Logger) *CumulativeReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CumulativeReportService{docs: docs, metrics: metrics, notifier: notifier, logger: logger, now: time.Now}
}

// RecomputeCumulativeReports regenerates the reports of studentIDs for session from results.
// Prior records for those (student, session) pairs are replaced; a student left without results loses the record.
// An empty session regenerates every session of the listed students.
func (s *CumulativeReportService) RecomputeCumulativeReports(ctx context.Context, results []models.ExamResultRecord, studentIDs []string, session string) ([]models.StudentCumulativeReportRecord, error) {
	if len(studentIDs) == 0 {
		return []models.StudentCumulativeReportRecord{}, nil
	}
	start := time.Now()
	targets := make(map[string]struct{}, len(studentIDs))
	for _, id := range studentIDs {
		targets[id] = struct{}{}
	}
	scoped := make([]models.ExamResultRecord, 0, len(results))
	for _, result := range results {
		if _, ok := targets[result.StudentID]; ok {
			scoped = append(scoped, result)
		}
	}
	rebuilt := BuildCumulativeReports(scoped, session, s.now())

	err := s.docs.Mutate(ctx, repository.KeyCumulativeReports, func(ctx context.Context) error {
		existing, err := s.loadReports(ctx)
		if err != nil {
			return err
		}
		kept := make([]models.StudentCumulativeReportRecord, 0, len(existing)+len(rebuilt))
		for _, report := range existing {
			_, targeted := targets[report.StudentID]
			if targeted && (session == "" || report.Session == session) {
				continue
			}
			kept = append(kept, report)
		}
		kept = append(kept, rebuilt...)
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].Key() < kept[j].Key() })
		return s.docs.Save(ctx, repository.KeyCumulativeReports, kept)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveRebuild("cumulative_reports", time.Since(start), len(scoped))
	}
	s.logger.Debug("cumulative reports rebuilt", zap.Strings("students", studentIDs), zap.String("session", session), zap.Int("reports", len(rebuilt)))
	if s.notifier != nil {
		s.notifier.Notify(ctx, models.ChangeEvent{Type: models.ChangeCumulativeReports, Session: session, StudentIDs: studentIDs, OccurredAt: s.now().UTC()})
	}
	return rebuilt, nil
}

// Report returns the report of one student for one session.
func (s *CumulativeReportService) Report(ctx context.Context, studentID, session string) (*models.StudentCumulativeReportRecord, error) {
	reports, err := s.loadReports(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		if reports[i].StudentID == studentID && reports[i].Session == session {
			return &reports[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrReportNotFound, "")
}

// ListReports returns every report, optionally restricted to a session.
func (s *CumulativeReportService) ListReports(ctx context.Context, session string) ([]models.StudentCumulativeReportRecord, error) {
	reports, err := s.loadReports(ctx)
	if err != nil {
		return nil, err
	}
	if session == "" {
		return reports, nil
	}
	filtered := make([]models.StudentCumulativeReportRecord, 0, len(reports))
	for _, report := range reports {
		if report.Session == session {
			filtered = append(filtered, report)
		}
	}
	return filtered, nil
}

func (s *CumulativeReportService) loadReports(ctx context.Context) ([]models.StudentCumulativeReportRecord, error) {
	var reports []models.StudentCumulativeReportRecord
	if _, err := s.docs.Load(ctx, repository.KeyCumulativeReports, &reports); err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.StudentCumulativeReportRecord{}
	}
	return reports, nil
}
