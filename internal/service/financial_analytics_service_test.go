package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

func newFinancialFixture() (*FinancialAnalyticsService, *repository.DocumentRepository, *rebuildRecorder, *notifierStub) {
	docs := newMemoryDocs()
	metrics := &rebuildRecorder{}
	notifier := &notifierStub{}
	svc := NewFinancialAnalyticsService(docs, metrics, notifier, FinancialAnalyticsConfig{}, zap.NewNop())
	svc.now = fixedClock(analyticsNow)
	return svc, docs, metrics, notifier
}

func samplePayments() []interface{} {
	return []interface{}{
		map[string]interface{}{"id": "p1", "studentId": "s1", "studentName": "Ada", "amount": 100.0, "status": "completed", "createdAt": "2025-03-01T00:00:00Z", "updatedAt": "2025-03-06T00:00:00Z"},
		map[string]interface{}{"id": "p2", "studentId": "s2", "studentName": "Bayo", "amount": 50.0, "status": "pending", "createdAt": "2025-03-02T00:00:00Z"},
	}
}

func TestRecomputeFinancialAnalyticsPersistsSnapshot(t *testing.T) {
	svc, docs, metrics, notifier := newFinancialFixture()
	ctx := context.Background()

	snapshot, err := svc.RecomputeFinancialAnalytics(ctx, samplePayments())
	require.NoError(t, err)
	assert.Equal(t, 66.7, snapshot.Periods[models.PeriodAll].Summary.CollectionRate)

	var stored models.FinancialAnalyticsSnapshot
	found, err := docs.Load(ctx, repository.KeyFinancialAnalytics, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, snapshot.Defaulters[0].ID, stored.Defaulters[0].ID)

	again, err := svc.RecomputeFinancialAnalytics(ctx, samplePayments())
	require.NoError(t, err)
	first, _ := json.Marshal(snapshot.Periods)
	second, _ := json.Marshal(again.Periods)
	assert.JSONEq(t, string(first), string(second))

	assert.Equal(t, []string{"financial_analytics", "financial_analytics"}, metrics.views)
	assert.Equal(t, []models.ChangeEventType{models.ChangeFinancialAnalytics, models.ChangeFinancialAnalytics}, notifier.types())
}

func TestRecomputeFinancialAnalyticsEmpty(t *testing.T) {
	svc, _, _, _ := newFinancialFixture()
	snapshot, err := svc.RecomputeFinancialAnalytics(context.Background(), nil)
	require.NoError(t, err)
	for _, key := range models.PeriodKeys {
		period := snapshot.Periods[key]
		assert.Equal(t, 0.0, period.Summary.CollectionRate)
		assert.Empty(t, period.FeeCollection)
		assert.Empty(t, period.ClassCollection)
	}
	assert.Empty(t, snapshot.Defaulters)
}

func TestIngestAndRemovePayments(t *testing.T) {
	svc, _, _, _ := newFinancialFixture()
	ctx := context.Background()

	snapshot, err := svc.IngestPayments(ctx, append(samplePayments(), "ignored"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, snapshot.Periods[models.PeriodAll].Summary.TotalCollected)

	payments, err := svc.Payments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	snapshot, err = svc.RemovePayment(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 0.0, snapshot.Periods[models.PeriodAll].Summary.OutstandingAmount)
	assert.Empty(t, snapshot.Defaulters)

	_, err = svc.RemovePayment(ctx, "p2")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSnapshotBuildsWhenMissing(t *testing.T) {
	svc, docs, _, _ := newFinancialFixture()
	ctx := context.Background()
	require.NoError(t, docs.Save(ctx, repository.KeyPayments, samplePayments()))

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Periods[models.PeriodAll].Summary.StudentsPaid)

	period, err := svc.Period(ctx, models.PeriodCurrentTerm)
	require.NoError(t, err)
	assert.Equal(t, 50.0, period.Summary.OutstandingAmount)

	_, err = svc.Period(ctx, "fortnight")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestConcurrentIngestKeepsEveryPayment(t *testing.T) {
	svc, _, _, _ := newFinancialFixture()
	ctx := context.Background()

	done := make(chan error)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := svc.IngestPayments(ctx, []interface{}{map[string]interface{}{"id": time.Duration(i).String(), "amount": 1.0, "status": "paid"}})
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, snapshot.Periods[models.PeriodAll].Summary.TotalCollected)
}

// gatedDocs holds the first snapshot save until release is closed.
type gatedDocs struct {
	DocumentStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedDocs) Mutate(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == repository.KeyFinancialAnalytics {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.DocumentStore.Mutate(ctx, key, fn)
}

func TestRecomputeDoesNotOverwriteConcurrentIngest(t *testing.T) {
	docs := newMemoryDocs()
	gate := &gatedDocs{DocumentStore: docs, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewFinancialAnalyticsService(gate, nil, nil, FinancialAnalyticsConfig{}, zap.NewNop())
	svc.now = fixedClock(analyticsNow)
	ctx := context.Background()

	recomputed := make(chan error, 1)
	go func() {
		_, err := svc.Recompute(ctx)
		recomputed <- err
	}()
	<-gate.entered

	ingested := make(chan error, 1)
	go func() {
		_, err := svc.IngestPayments(ctx, []interface{}{map[string]interface{}{"id": "p1", "amount": 100.0, "status": "paid"}})
		ingested <- err
	}()

	select {
	case err := <-ingested:
		t.Fatalf("ingest finished while a recompute held the payments: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	require.NoError(t, <-recomputed)
	require.NoError(t, <-ingested)

	snapshot, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snapshot.Periods[models.PeriodAll].Summary.TotalCollected)

	payments, err := svc.Payments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestReplacePaymentsStoresRecords(t *testing.T) {
	svc, _, _, _ := newFinancialFixture()
	ctx := context.Background()

	_, err := svc.IngestPayments(ctx, samplePayments())
	require.NoError(t, err)

	replacement := []interface{}{
		map[string]interface{}{"id": "p7", "studentId": "s7", "amount": 30.0, "status": "paid", "createdAt": "2025-03-03T00:00:00Z"},
		42,
	}
	snapshot, err := svc.ReplacePayments(ctx, replacement)
	require.NoError(t, err)
	assert.Equal(t, 30.0, snapshot.Periods[models.PeriodAll].Summary.TotalCollected)

	payments, err := svc.Payments(ctx)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	again, err := svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, again.Periods[models.PeriodAll].Summary.TotalCollected)
}
