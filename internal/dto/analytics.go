package dto

import (
	"time"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

// IngestPaymentsRequest captures POST /finance/payments. Records are kept as received.
type IngestPaymentsRequest struct {
	Payments []interface{} `json:"payments" binding:"required"`
}

// RecomputeFinancialRequest captures POST /finance/analytics/recompute.
// Payments, when present, replace the stored records; otherwise the stored records are used.
type RecomputeFinancialRequest struct {
	Payments []interface{} `json:"payments"`
}

// CreateExamScheduleRequest captures POST /exams.
type CreateExamScheduleRequest struct {
	ID        string     `json:"id"`
	ClassID   string     `json:"classId" validate:"required"`
	ClassName string     `json:"className" validate:"required"`
	Subject   string     `json:"subject" validate:"required"`
	Term      string     `json:"term" validate:"required"`
	Session   string     `json:"session" validate:"required"`
	ExamDate  *time.Time `json:"examDate,omitempty"`
}

// SaveExamResultsRequest captures POST /exams/:id/results.
type SaveExamResultsRequest struct {
	Results []models.ExamResultInput `json:"results"`
}

// ExamResultsResponse lists the rows of one exam.
type ExamResultsResponse struct {
	Exam    *models.ExamSchedule      `json:"exam,omitempty"`
	Results []models.ExamResultRecord `json:"results"`
}
