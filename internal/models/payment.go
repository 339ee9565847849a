package models

import "time"

// PaymentStatus is the closed classification of a fee payment.
type PaymentStatus string

const (
	// PaymentStatusCompleted marks money that has been received.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusPending marks money that is still expected.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusFailed marks declined or reversed payments.
	PaymentStatusFailed PaymentStatus = "failed"
)

// AnalyticsPayment is the canonical fee payment produced from a raw gateway or ledger record.
type AnalyticsPayment struct {
	ID          string        `json:"id"`
	StudentID   *string       `json:"studentId,omitempty"`
	StudentName string        `json:"studentName"`
	ParentName  *string       `json:"parentName,omitempty"`
	ParentEmail *string       `json:"parentEmail,omitempty"`
	ClassName   *string       `json:"className,omitempty"`
	Amount      float64       `json:"amount"`
	Status      PaymentStatus `json:"status"`
	Method      *string       `json:"method,omitempty"`
	PaymentType *string       `json:"paymentType,omitempty"`
	Source      *string       `json:"source,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

// ResolvedDate returns updatedAt when present, otherwise createdAt.
func (p AnalyticsPayment) ResolvedDate() *time.Time {
	if p.UpdatedAt != nil {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// StudentKey identifies the payer: studentId, then studentName, then the payment id.
func (p AnalyticsPayment) StudentKey() string {
	if p.StudentID != nil && *p.StudentID != "" {
		return *p.StudentID
	}
	if p.StudentName != "" {
		return p.StudentName
	}
	return p.ID
}

// IsCompleted reports whether the payment has been received.
func (p AnalyticsPayment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
