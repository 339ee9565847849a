package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	rebuildDuration *prometheus.HistogramVec
	rebuildRecords  *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	rebuildCount         uint64
	rebuildDurationTotal uint64
	storeOpCount         uint64
	storeErrorCount      uint64
	storeDurationTotal   uint64

	mu           sync.Mutex
	rebuildsView map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	rebuildDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "derived_view_rebuild_seconds",
		Help:    "Duration of derived view rebuilds",
		Buckets: prometheus.DefBuckets,
	}, []string{"view"})

	rebuildRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "derived_view_records_total",
		Help: "Source records consumed by derived view rebuilds",
	}, []string{"view"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "store_operation_seconds",
		Help:    "Latency of key-value store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_errors_total",
		Help: "Failed key-value store operations",
	}, []string{"op"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, rebuildDuration, rebuildRecords, storeDuration, storeErrors, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		rebuildDuration: rebuildDuration,
		rebuildRecords:  rebuildRecords,
		storeDuration:   storeDuration,
		storeErrors:     storeErrors,
		rebuildsView:    make(map[string]uint64),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRebuild records one derived view rebuild.
func (m *MetricsService) ObserveRebuild(view string, duration time.Duration, records int) {
	if m == nil {
		return
	}
	m.rebuildDuration.WithLabelValues(view).Observe(duration.Seconds())
	m.rebuildRecords.WithLabelValues(view).Add(float64(records))
	atomic.AddUint64(&m.rebuildCount, 1)
	atomic.AddUint64(&m.rebuildDurationTotal, uint64(duration.Nanoseconds()))

	m.mu.Lock()
	m.rebuildsView[view]++
	m.mu.Unlock()
}

// ObserveStoreOperation records the latency and outcome of a store call.
func (m *MetricsService) ObserveStoreOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeDurationTotal, uint64(duration.Nanoseconds()))
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
		atomic.AddUint64(&m.storeErrorCount, 1)
	}
}

// Snapshot returns aggregated metrics suitable for the metrics endpoint.
func (m *MetricsService) Snapshot() models.EngineMetrics {
	if m == nil {
		return models.EngineMetrics{Rebuilds: map[string]uint64{}}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	rebuilds := atomic.LoadUint64(&m.rebuildCount)
	rebuildDuration := atomic.LoadUint64(&m.rebuildDurationTotal)
	storeOps := atomic.LoadUint64(&m.storeOpCount)
	storeDuration := atomic.LoadUint64(&m.storeDurationTotal)

	m.mu.Lock()
	perView := make(map[string]uint64, len(m.rebuildsView))
	for view, count := range m.rebuildsView {
		perView[view] = count
	}
	m.mu.Unlock()

	return models.EngineMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(reqDuration, requests),
		Rebuilds:                 perView,
		AverageRebuildMs:         averageMs(rebuildDuration, rebuilds),
		StoreOperations:          storeOps,
		StoreErrors:              atomic.LoadUint64(&m.storeErrorCount),
		AverageStoreOpMs:         averageMs(storeDuration, storeOps),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
