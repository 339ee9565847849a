package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
)

func newMemoryDocs() *repository.DocumentRepository {
	return repository.NewDocumentRepository(repository.NewMemoryStore(), nil, "test", nil, zap.NewNop())
}

type rebuildRecorder struct {
	mu    sync.Mutex
	views []string
}

func (r *rebuildRecorder) ObserveRebuild(view string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
}

type notifierStub struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (n *notifierStub) Notify(_ context.Context, event models.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *notifierStub) types() []models.ChangeEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.ChangeEventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
