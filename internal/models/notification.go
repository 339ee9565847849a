package models

import "time"

// ChangeEventType names the derived view that was rebuilt.
type ChangeEventType string

const (
	ChangeFinancialAnalytics ChangeEventType = "financial-analytics.updated"
	ChangeCumulativeReports  ChangeEventType = "cumulative-reports.updated"
	ChangeExamResults        ChangeEventType = "exam-results.updated"
)

// ChangeEvent tells subscribers that a derived view should be re-read.
type ChangeEvent struct {
	Type       ChangeEventType `json:"type"`
	ExamID     string          `json:"examId,omitempty"`
	Session    string          `json:"session,omitempty"`
	StudentIDs []string        `json:"studentIds,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	RequestID  string          `json:"requestId,omitempty"`
}
