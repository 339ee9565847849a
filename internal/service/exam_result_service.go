package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/dto"
	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
	"github.com/umarmf343/vea-2025-sub003/pkg/logger"
)

type cumulativeRebuilder interface {
	RecomputeCumulativeReports(ctx context.Context, results []models.ExamResultRecord, studentIDs []string, session string) ([]models.StudentCumulativeReportRecord, error)
}

// SaveResultsOptions tunes SaveResults.
type SaveResultsOptions struct {
	AutoPublish bool
}

// ExamResultService is the ledger of exam result rows keyed by (examId, studentId).
type ExamResultService struct {
	docs       DocumentStore
	cumulative cumulativeRebuilder
	notifier   ChangeNotifier
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewExamResultService constructs the ledger.
func NewExamResultService(docs DocumentStore, cumulative cumulativeRebuilder, notifier ChangeNotifier, validate *validator.Validate, logger *zap.Logger) *ExamResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamResultService{docs: docs, cumulative: cumulative, notifier: notifier, validator: validate, logger: logger, now: time.Now}
}

// CreateSchedule registers an exam schedule.
func (s *ExamResultService) CreateSchedule(ctx context.Context, req dto.CreateExamScheduleRequest) (*models.ExamSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid exam schedule payload")
	}
	now := s.now().UTC()
	schedule := models.ExamSchedule{
		ID:        strings.TrimSpace(req.ID),
		ClassID:   req.ClassID,
		ClassName: req.ClassName,
		Subject:   req.Subject,
		Term:      req.Term,
		Session:   req.Session,
		ExamDate:  req.ExamDate,
		Status:    models.ExamScheduleScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	err := s.docs.Mutate(ctx, repository.KeyExamResults, func(ctx context.Context) error {
		schedules, err := s.loadSchedules(ctx)
		if err != nil {
			return err
		}
		for _, existing := range schedules {
			if existing.ID == schedule.ID {
				return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("exam schedule %s already exists", schedule.ID))
			}
		}
		return s.docs.Save(ctx, repository.KeyExamSchedules, append(schedules, schedule))
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetSchedule returns one exam schedule.
func (s *ExamResultService) GetSchedule(ctx context.Context, examID string) (*models.ExamSchedule, error) {
	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return nil, err
	}
	idx := findSchedule(schedules, examID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrScheduleNotFound, "")
	}
	return &schedules[idx], nil
}

// ListResults returns the rows of one exam ordered by student name.
func (s *ExamResultService) ListResults(ctx context.Context, examID string) ([]models.ExamResultRecord, error) {
	results, err := s.loadResults(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ExamResultRecord, 0)
	for _, result := range results {
		if result.ExamID == examID {
			rows = append(rows, result)
		}
	}
	sortResults(rows)
	return rows, nil
}

// SaveResults upserts score rows for an exam and rebuilds the cumulative reports of every touched student.
func (s *ExamResultService) SaveResults(ctx context.Context, examID string, inputs []models.ExamResultInput, opts SaveResultsOptions) ([]models.ExamResultRecord, error) {
	if strings.TrimSpace(examID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exam id required")
	}
	for i := range inputs {
		if err := s.validator.Struct(inputs[i]); err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrValidation, fmt.Sprintf("invalid result at index %d", i))
		}
	}

	var saved []models.ExamResultRecord
	err := s.docs.Mutate(ctx, repository.KeyExamResults, func(ctx context.Context) error {
		schedules, err := s.loadSchedules(ctx)
		if err != nil {
			return err
		}
		idx := findSchedule(schedules, examID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrScheduleNotFound, "")
		}
		schedule := schedules[idx]

		results, err := s.loadResults(ctx)
		if err != nil {
			return err
		}
		positions := make(map[string]int, len(results))
		for i, result := range results {
			if result.ExamID == examID {
				positions[result.StudentID] = i
			}
		}

		now := s.now().UTC()
		written := make(map[string]int)
		for _, input := range inputs {
			var existing *models.ExamResultRecord
			if i, ok := positions[input.StudentID]; ok {
				existing = &results[i]
			}
			record := mergeResult(existing, input, schedule, opts, now)
			if i, ok := positions[input.StudentID]; ok {
				results[i] = record
			} else {
				positions[input.StudentID] = len(results)
				results = append(results, record)
			}
			written[input.StudentID] = positions[input.StudentID]
		}
		if len(written) == 0 {
			saved = []models.ExamResultRecord{}
			return nil
		}

		if err := s.docs.Save(ctx, repository.KeyExamResults, results); err != nil {
			return err
		}
		schedules[idx].Status = models.ExamScheduleCompleted
		schedules[idx].UpdatedAt = now
		if err := s.docs.Save(ctx, repository.KeyExamSchedules, schedules); err != nil {
			return err
		}

		studentIDs := make([]string, 0, len(written))
		saved = make([]models.ExamResultRecord, 0, len(written))
		for studentID, i := range written {
			studentIDs = append(studentIDs, studentID)
			saved = append(saved, results[i])
		}
		sort.Strings(studentIDs)
		sortResults(saved)

		logger.FromContext(ctx, s.logger).Info("exam results saved", zap.String("exam_id", examID), zap.Int("rows", len(saved)), zap.Bool("auto_publish", opts.AutoPublish))
		return s.rebuild(ctx, results, studentIDs, schedule.Session, examID)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// PublishResults publishes every unpublished row of an exam. Rows already published keep their publishedAt.
func (s *ExamResultService) PublishResults(ctx context.Context, examID string) ([]models.ExamResultRecord, error) {
	var published []models.ExamResultRecord
	err := s.docs.Mutate(ctx, repository.KeyExamResults, func(ctx context.Context) error {
		schedules, err := s.loadSchedules(ctx)
		if err != nil {
			return err
		}
		idx := findSchedule(schedules, examID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrScheduleNotFound, "")
		}

		results, err := s.loadResults(ctx)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		changed := 0
		var studentIDs []string
		for i := range results {
			if results[i].ExamID != examID {
				continue
			}
			studentIDs = append(studentIDs, results[i].StudentID)
			if results[i].Status == models.ExamResultPublished && results[i].PublishedAt != nil {
				published = append(published, results[i])
				continue
			}
			results[i].Status = models.ExamResultPublished
			if results[i].PublishedAt == nil {
				results[i].PublishedAt = &now
			}
			results[i].UpdatedAt = now
			changed++
			published = append(published, results[i])
		}
		sortResults(published)
		if changed == 0 {
			return nil
		}
		if err := s.docs.Save(ctx, repository.KeyExamResults, results); err != nil {
			return err
		}
		logger.FromContext(ctx, s.logger).Info("exam results published", zap.String("exam_id", examID), zap.Int("rows", changed))
		sort.Strings(studentIDs)
		return s.rebuild(ctx, results, studentIDs, schedules[idx].Session, examID)
	})
	if err != nil {
		return nil, err
	}
	if published == nil {
		published = []models.ExamResultRecord{}
	}
	return published, nil
}

// DeleteSchedule removes an exam and its rows, then rebuilds reports of exactly the students who lost a row.
func (s *ExamResultService) DeleteSchedule(ctx context.Context, examID string) error {
	return s.docs.Mutate(ctx, repository.KeyExamResults, func(ctx context.Context) error {
		schedules, err := s.loadSchedules(ctx)
		if err != nil {
			return err
		}
		idx := findSchedule(schedules, examID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrScheduleNotFound, "")
		}
		schedule := schedules[idx]
		schedules = append(schedules[:idx:idx], schedules[idx+1:]...)

		results, err := s.loadResults(ctx)
		if err != nil {
			return err
		}
		kept := make([]models.ExamResultRecord, 0, len(results))
		removed := make(map[string]struct{})
		for _, result := range results {
			if result.ExamID == examID {
				removed[result.StudentID] = struct{}{}
				continue
			}
			kept = append(kept, result)
		}

		if err := s.docs.Save(ctx, repository.KeyExamResults, kept); err != nil {
			return err
		}
		if err := s.docs.Save(ctx, repository.KeyExamSchedules, schedules); err != nil {
			return err
		}

		studentIDs := make([]string, 0, len(removed))
		for id := range removed {
			studentIDs = append(studentIDs, id)
		}
		sort.Strings(studentIDs)
		logger.FromContext(ctx, s.logger).Info("exam schedule deleted", zap.String("exam_id", examID), zap.Int("results_removed", len(results)-len(kept)))
		return s.rebuild(ctx, kept, studentIDs, schedule.Session, examID)
	})
}

func (s *ExamResultService) rebuild(ctx context.Context, results []models.ExamResultRecord, studentIDs []string, session, examID string) error {
	if s.notifier != nil {
		s.notifier.Notify(ctx, models.ChangeEvent{Type: models.ChangeExamResults, ExamID: examID, Session: session, StudentIDs: studentIDs, OccurredAt: s.now().UTC()})
	}
	if s.cumulative == nil || len(studentIDs) == 0 {
		return nil
	}
	if _, err := s.cumulative.RecomputeCumulativeReports(ctx, results, studentIDs, session); err != nil {
		logger.FromContext(ctx, s.logger).Error("cumulative rebuild failed", zap.String("exam_id", examID), zap.String("session", session), zap.Error(err))
		return err
	}
	return nil
}

func mergeResult(existing *models.ExamResultRecord, input models.ExamResultInput, schedule models.ExamSchedule, opts SaveResultsOptions, now time.Time) models.ExamResultRecord {
	var record models.ExamResultRecord
	if existing != nil {
		record = *existing
	} else {
		record = models.ExamResultRecord{
			ID:        uuid.NewString(),
			ExamID:    schedule.ID,
			StudentID: input.StudentID,
			Status:    models.ExamResultPending,
			CreatedAt: now,
		}
	}

	record.ClassID = schedule.ClassID
	record.ClassName = schedule.ClassName
	record.Subject = schedule.Subject
	record.Term = schedule.Term
	record.Session = schedule.Session
	if name := strings.TrimSpace(input.StudentName); name != "" {
		record.StudentName = name
	}

	record.CA1 = input.CA1
	record.CA2 = input.CA2
	record.Assignment = input.Assignment
	record.Exam = input.Exam
	record.Total = input.CA1 + input.CA2 + input.Assignment + input.Exam
	if grade := strings.TrimSpace(input.Grade); grade != "" {
		record.Grade = grade
	} else {
		record.Grade = GradeFor(record.Total)
	}

	if input.Position != nil {
		record.Position = input.Position
	}
	if input.TotalStudents != nil {
		record.TotalStudents = input.TotalStudents
	}
	if input.Remarks != "" {
		record.Remarks = input.Remarks
	}

	switch {
	case opts.AutoPublish:
		record.Status = models.ExamResultPublished
	case input.Status != "":
		record.Status = input.Status
	case record.Status == "":
		record.Status = models.ExamResultPending
	}
	if record.Status == models.ExamResultPublished && record.PublishedAt == nil {
		publishedAt := now
		record.PublishedAt = &publishedAt
	}
	record.UpdatedAt = now
	return record
}

func findSchedule(schedules []models.ExamSchedule, examID string) int {
	for i := range schedules {
		if schedules[i].ID == examID {
			return i
		}
	}
	return -1
}

func sortResults(rows []models.ExamResultRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StudentName != rows[j].StudentName {
			return rows[i].StudentName < rows[j].StudentName
		}
		return rows[i].StudentID < rows[j].StudentID
	})
}

func (s *ExamResultService) loadSchedules(ctx context.Context) ([]models.ExamSchedule, error) {
	var schedules []models.ExamSchedule
	if _, err := s.docs.Load(ctx, repository.KeyExamSchedules, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *ExamResultService) loadResults(ctx context.Context) ([]models.ExamResultRecord, error) {
	var results []models.ExamResultRecord
	if _, err := s.docs.Load(ctx, repository.KeyExamResults, &results); err != nil {
		return nil, err
	}
	return results, nil
}
