package models

import "time"

// EngineMetrics is a point-in-time view of rebuild and store instrumentation.
type EngineMetrics struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	Rebuilds                 map[string]uint64 `json:"rebuilds"`
	AverageRebuildMs         float64           `json:"average_rebuild_ms"`
	StoreOperations          uint64            `json:"store_operations"`
	StoreErrors              uint64            `json:"store_errors"`
	AverageStoreOpMs         float64           `json:"average_store_op_ms"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}
