package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
	"github.com/umarmf343/vea-2025-sub003/internal/repository"
	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

// DocumentStore is the JSON document persistence consumed by the analytics services.
type DocumentStore interface {
	Load(ctx context.Context, key string, dest interface{}) (bool, error)
	Save(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Mutate(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RebuildObserver records how long a derived view took to rebuild.
type RebuildObserver interface {
	ObserveRebuild(view string, duration time.Duration, records int)
}

// ChangeNotifier is told about rebuilt views. Delivery is best effort.
type ChangeNotifier interface {
	Notify(ctx context.Context, event models.ChangeEvent)
}

// FinancialAnalyticsConfig tunes the financial statistics.
type FinancialAnalyticsConfig struct {
	OnTimeDays int
}

// FinancialAnalyticsService keeps the persisted financial snapshot in step with the stored payments.
type FinancialAnalyticsService struct {
	docs     DocumentStore
	metrics  RebuildObserver
	notifier ChangeNotifier
	cfg      FinancialAnalyticsConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewFinancialAnalyticsService constructs the service.
func NewFinancialAnalyticsService(docs DocumentStore, metrics RebuildObserver, notifier ChangeNotifier, cfg FinancialAnalyticsConfig, logger *zap.Logger) *FinancialAnalyticsService {
	if cfg.OnTimeDays <= 0 {
		cfg.OnTimeDays = DefaultOnTimeDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinancialAnalyticsService{docs: docs, metrics: metrics, notifier: notifier, cfg: cfg, logger: logger, now: time.Now}
}

// RecomputeFinancialAnalytics rebuilds the snapshot from raws and replaces the persisted document.
// Callers that derive raws from the stored payments must hold the payments lock.
func (s *FinancialAnalyticsService) RecomputeFinancialAnalytics(ctx context.Context, raws []interface{}) (*models.FinancialAnalyticsSnapshot, error) {
	start := time.Now()
	snapshot := BuildFinancialSnapshot(raws, s.now(), s.cfg.OnTimeDays)
	err := s.docs.Mutate(ctx, repository.KeyFinancialAnalytics, func(ctx context.Context) error {
		return s.docs.Save(ctx, repository.KeyFinancialAnalytics, snapshot)
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRebuild("financial_analytics", time.Since(start), len(raws))
	}
	s.logger.Debug("financial analytics rebuilt", zap.Int("payments", len(raws)), zap.Int("defaulters", len(snapshot.Defaulters)))
	if s.notifier != nil {
		s.notifier.Notify(ctx, models.ChangeEvent{Type: models.ChangeFinancialAnalytics, OccurredAt: snapshot.GeneratedAt})
	}
	return &snapshot, nil
}

// Recompute rebuilds the snapshot from the stored payments. The payments lock is held
// across the read and the save so a concurrent ingest cannot be overwritten by an older view.
func (s *FinancialAnalyticsService) Recompute(ctx context.Context) (*models.FinancialAnalyticsSnapshot, error) {
	var snapshot *models.FinancialAnalyticsSnapshot
	err := s.docs.Mutate(ctx, repository.KeyPayments, func(ctx context.Context) error {
		raws, err := s.loadPayments(ctx)
		if err != nil {
			return err
		}
		snapshot, err = s.RecomputeFinancialAnalytics(ctx, raws)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ReplacePayments swaps the stored payment records for raws and rebuilds the snapshot.
// Non-object records are dropped.
func (s *FinancialAnalyticsService) ReplacePayments(ctx context.Context, raws []interface{}) (*models.FinancialAnalyticsSnapshot, error) {
	var snapshot *models.FinancialAnalyticsSnapshot
	err := s.docs.Mutate(ctx, repository.KeyPayments, func(ctx context.Context) error {
		stored := make([]interface{}, 0, len(raws))
		for _, raw := range raws {
			if _, ok := asObject(raw); ok {
				stored = append(stored, raw)
			}
		}
		if err := s.docs.Save(ctx, repository.KeyPayments, stored); err != nil {
			return err
		}
		var err error
		snapshot, err = s.RecomputeFinancialAnalytics(ctx, stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// IngestPayments appends raw payment records and rebuilds the snapshot. Non-object records are ignored.
func (s *FinancialAnalyticsService) IngestPayments(ctx context.Context, raws []interface{}) (*models.FinancialAnalyticsSnapshot, error) {
	var snapshot *models.FinancialAnalyticsSnapshot
	err := s.docs.Mutate(ctx, repository.KeyPayments, func(ctx context.Context) error {
		stored, err := s.loadPayments(ctx)
		if err != nil {
			return err
		}
		for _, raw := range raws {
			if _, ok := asObject(raw); ok {
				stored = append(stored, raw)
			}
		}
		if err := s.docs.Save(ctx, repository.KeyPayments, stored); err != nil {
			return err
		}
		snapshot, err = s.RecomputeFinancialAnalytics(ctx, stored)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RemovePayment deletes every stored record normalising to paymentID and rebuilds the snapshot.
func (s *FinancialAnalyticsService) RemovePayment(ctx context.Context, paymentID string) (*models.FinancialAnalyticsSnapshot, error) {
	var snapshot *models.FinancialAnalyticsSnapshot
	err := s.docs.Mutate(ctx, repository.KeyPayments, func(ctx context.Context) error {
		stored, err := s.loadPayments(ctx)
		if err != nil {
			return err
		}
		kept := stored[:0:0]
		for _, raw := range stored {
			if payment := NormalizePayment(raw); payment != nil && payment.ID == paymentID {
				continue
			}
			kept = append(kept, raw)
		}
		if len(kept) == len(stored) {
			return appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		if err := s.docs.Save(ctx, repository.KeyPayments, kept); err != nil {
			return err
		}
		snapshot, err = s.RecomputeFinancialAnalytics(ctx, kept)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Snapshot returns the persisted snapshot, rebuilding it when none exists yet.
func (s *FinancialAnalyticsService) Snapshot(ctx context.Context) (*models.FinancialAnalyticsSnapshot, error) {
	var snapshot models.FinancialAnalyticsSnapshot
	found, err := s.docs.Load(ctx, repository.KeyFinancialAnalytics, &snapshot)
	if err != nil {
		return nil, err
	}
	if !found {
		return s.Recompute(ctx)
	}
	return &snapshot, nil
}

// Period returns the statistics of one period.
func (s *FinancialAnalyticsService) Period(ctx context.Context, key models.PeriodKey) (*models.PeriodAnalytics, error) {
	if !IsPeriodKey(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown period "+string(key))
	}
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	period := snapshot.Periods[key]
	return &period, nil
}

// Payments returns the normalised view of the stored payments.
func (s *FinancialAnalyticsService) Payments(ctx context.Context) ([]models.AnalyticsPayment, error) {
	raws, err := s.loadPayments(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizePayments(raws), nil
}

func (s *FinancialAnalyticsService) loadPayments(ctx context.Context) ([]interface{}, error) {
	var raws []interface{}
	if _, err := s.docs.Load(ctx, repository.KeyPayments, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}
