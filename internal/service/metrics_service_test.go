package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/finance/analytics", 200, 4*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/finance/analytics", 200, 6*time.Millisecond)
	m.ObserveRebuild("financial_analytics", 2*time.Millisecond, 10)
	m.ObserveRebuild("cumulative_reports", 4*time.Millisecond, 3)
	m.ObserveRebuild("cumulative_reports", 6*time.Millisecond, 3)
	m.ObserveStoreOperation("get", time.Millisecond, nil)
	m.ObserveStoreOperation("set", 3*time.Millisecond, errors.New("boom"))

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 5.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, map[string]uint64{"financial_analytics": 1, "cumulative_reports": 2}, snapshot.Rebuilds)
	assert.InDelta(t, 4.0, snapshot.AverageRebuildMs, 0.001)
	assert.Equal(t, uint64(2), snapshot.StoreOperations)
	assert.Equal(t, uint64(1), snapshot.StoreErrors)
	assert.InDelta(t, 2.0, snapshot.AverageStoreOpMs, 0.001)
	assert.Greater(t, snapshot.Goroutines, 0)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveRebuild("financial_analytics", time.Millisecond, 2)
	m.ObserveStoreOperation("remove", time.Millisecond, errors.New("down"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `derived_view_records_total{view="financial_analytics"} 2`))
	assert.True(t, strings.Contains(body, `store_errors_total{op="remove"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveRebuild("x", time.Second, 1)
	m.ObserveStoreOperation("get", time.Second, nil)
	m.ObserveHTTPRequest("GET", "/", 200, time.Second)
	assert.Empty(t, m.Snapshot().Rebuilds)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
