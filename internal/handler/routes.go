package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Financial  *FinancialAnalyticsHandler
	Exams      *ExamResultHandler
	Cumulative *CumulativeReportHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts every analytics route on group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers) {
	if h.Financial != nil {
		finance := group.Group("/finance")
		finance.POST("/payments", h.Financial.IngestPayments)
		finance.DELETE("/payments/:id", h.Financial.RemovePayment)
		finance.POST("/analytics/recompute", h.Financial.Recompute)
		finance.GET("/analytics", h.Financial.Snapshot)
		finance.GET("/analytics/:period", h.Financial.Period)
		finance.GET("/analytics/:period/fee-collection.csv", h.Financial.FeeCollectionCSV)
		finance.GET("/defaulters.csv", h.Financial.DefaultersCSV)
	}

	if h.Exams != nil {
		exams := group.Group("/exams")
		exams.POST("", h.Exams.CreateSchedule)
		exams.DELETE("/:id", h.Exams.DeleteSchedule)
		exams.GET("/:id/results", h.Exams.ListResults)
		exams.POST("/:id/results", h.Exams.SaveResults)
		exams.POST("/:id/publish", h.Exams.PublishResults)
	}

	if h.Cumulative != nil {
		reports := group.Group("/reports/cumulative")
		reports.GET("", h.Cumulative.List)
		reports.GET("/:studentId", h.Cumulative.Get)
		reports.GET("/:studentId/pdf", h.Cumulative.PDF)
	}

	if h.Metrics != nil {
		group.GET("/metrics/summary", h.Metrics.Snapshot)
	}
}

// RegisterProbes mounts liveness, readiness and Prometheus endpoints at the root.
func RegisterProbes(r gin.IRoutes, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
}
