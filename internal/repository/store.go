package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/umarmf343/vea-2025-sub003/pkg/errors"
)

// Document keys shared by the analytics services.
const (
	KeyPayments           = "payments"
	KeyFinancialAnalytics = "financial-analytics"
	KeyExamSchedules      = "exam-schedules"
	KeyExamResults        = "exam-results"
	KeyCumulativeReports  = "cumulative-reports"
)

// KeyValueStore is the opaque string store behind every persisted document.
// Get reports found=false for a missing key rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Locker serialises read-modify-write cycles on a key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// StoreObserver receives timings for store operations.
type StoreObserver interface {
	ObserveStoreOperation(op string, duration time.Duration, err error)
}

// DocumentRepository stores JSON documents in a KeyValueStore.
type DocumentRepository struct {
	store    KeyValueStore
	locker   Locker
	prefix   string
	observer StoreObserver
	logger   *zap.Logger
}

// NewDocumentRepository constructs a document repository. A nil locker falls back to an in-process lock.
func NewDocumentRepository(store KeyValueStore, locker Locker, prefix string, observer StoreObserver, logger *zap.Logger) *DocumentRepository {
	if locker == nil {
		locker = NewMemoryLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentRepository{store: store, locker: locker, prefix: prefix, observer: observer, logger: logger}
}

// Load decodes the document at key into dest. It returns false when the key is absent.
func (r *DocumentRepository) Load(ctx context.Context, key string, dest interface{}) (bool, error) {
	fullKey := r.key(key)
	start := time.Now()
	raw, found, err := r.store.Get(ctx, fullKey)
	r.observe("get", start, err)
	if err != nil {
		r.logger.Error("document read failed", zap.String("key", fullKey), zap.Error(err))
		return false, appErrors.WrapAs(err, appErrors.ErrStoreUnavailable, fmt.Sprintf("read %s", key))
	}
	if !found || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.logger.Error("document decode failed", zap.String("key", fullKey), zap.Error(err))
		return false, appErrors.WrapAs(err, appErrors.ErrInternal, fmt.Sprintf("decode %s", key))
	}
	return true, nil
}

// Save replaces the document at key with the JSON encoding of value.
func (r *DocumentRepository) Save(ctx context.Context, key string, value interface{}) error {
	fullKey := r.key(key)
	payload, err := json.Marshal(value)
	if err != nil {
		return appErrors.WrapAs(err, appErrors.ErrInternal, fmt.Sprintf("encode %s", key))
	}
	start := time.Now()
	err = r.store.Set(ctx, fullKey, string(payload))
	r.observe("set", start, err)
	if err != nil {
		r.logger.Error("document write failed", zap.String("key", fullKey), zap.Error(err))
		return appErrors.WrapAs(err, appErrors.ErrStoreUnavailable, fmt.Sprintf("write %s", key))
	}
	return nil
}

// Delete removes the document at key.
func (r *DocumentRepository) Delete(ctx context.Context, key string) error {
	fullKey := r.key(key)
	start := time.Now()
	err := r.store.Remove(ctx, fullKey)
	r.observe("remove", start, err)
	if err != nil {
		r.logger.Error("document delete failed", zap.String("key", fullKey), zap.Error(err))
		return appErrors.WrapAs(err, appErrors.ErrStoreUnavailable, fmt.Sprintf("delete %s", key))
	}
	return nil
}

// Mutate runs fn while holding the writer lock for key.
func (r *DocumentRepository) Mutate(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := r.locker.WithLock(ctx, r.key(key), fn)
	if err != nil && errors.Is(err, ErrLockNotObtained) {
		r.logger.Warn("document lock not obtained", zap.String("key", r.key(key)))
		return appErrors.WrapAs(err, appErrors.ErrLockNotObtained, "")
	}
	return err
}

func (r *DocumentRepository) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *DocumentRepository) observe(op string, start time.Time, err error) {
	if r.observer != nil {
		r.observer.ObserveStoreOperation(op, time.Since(start), err)
	}
}
