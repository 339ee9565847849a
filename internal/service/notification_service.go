package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/pkg/jobs"
	"github.com/umarmf343/vea-2025-sub003/pkg/middleware/requestid"
)

// Publisher delivers a change event to subscribers.
type Publisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService fans derived-view change events out through a background queue.
// Notify never fails the caller; delivery errors are logged.
type NotificationService struct {
	queue  jobQueue
	logger *zap.Logger
}

// NewNotificationService constructs the service around an already built queue.
func NewNotificationService(queue jobQueue, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// Notify schedules event for delivery.
func (s *NotificationService) Notify(ctx context.Context, event models.ChangeEvent) {
	if s == nil || s.queue == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = requestid.FromContext(ctx)
	}
	job := jobs.Job{ID: uuid.NewString(), Type: string(event.Type), Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("change notification dropped", zap.String("type", string(event.Type)), zap.String("request_id", event.RequestID), zap.Error(err))
	}
}

// NotificationWorker publishes queued change events.
type NotificationWorker struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewNotificationWorker constructs a worker bound to publisher.
func NewNotificationWorker(publisher Publisher, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{publisher: publisher, logger: logger}
}

// Handle is a jobs.Handler.
func (w *NotificationWorker) Handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.ChangeEvent)
	if !ok {
		w.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := w.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// LogPublisher writes change events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs payload.
func (p *LogPublisher) Publish(_ context.Context, payload interface{}) error {
	event, ok := payload.(models.ChangeEvent)
	if !ok {
		p.logger.Info("change event", zap.Any("payload", payload))
		return nil
	}
	p.logger.Info("change event",
		zap.String("type", string(event.Type)),
		zap.String("exam_id", event.ExamID),
		zap.String("session", event.Session),
		zap.Strings("student_ids", event.StudentIDs),
		zap.Time("occurred_at", event.OccurredAt),
		zap.String("request_id", event.RequestID),
	)
	return nil
}
