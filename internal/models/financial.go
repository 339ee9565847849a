package models

import "time"

// PeriodKey names one of the sliding windows used to scope financial statistics.
type PeriodKey string

const (
	PeriodCurrentTerm    PeriodKey = "current-term"
	PeriodLastTerm       PeriodKey = "last-term"
	PeriodCurrentSession PeriodKey = "current-session"
	PeriodLastSession    PeriodKey = "last-session"
	PeriodAll            PeriodKey = "all"
)

// PeriodKeys lists every period in presentation order.
var PeriodKeys = []PeriodKey{PeriodCurrentTerm, PeriodLastTerm, PeriodCurrentSession, PeriodLastSession, PeriodAll}

// FeeCollectionEntry is the monthly collected/expected roll-up.
type FeeCollectionEntry struct {
	Month      string  `json:"month"`
	Collected  float64 `json:"collected"`
	Expected   float64 `json:"expected"`
	Percentage float64 `json:"percentage"`
}

// ClassCollectionEntry is the per-class collected/expected roll-up.
type ClassCollectionEntry struct {
	Class      string  `json:"class"`
	Collected  float64 `json:"collected"`
	Expected   float64 `json:"expected"`
	Students   int     `json:"students"`
	Percentage float64 `json:"percentage"`
}

// FinancialSummary holds headline statistics derived from a payment set.
type FinancialSummary struct {
	TotalCollected    float64 `json:"totalCollected"`
	CollectionRate    float64 `json:"collectionRate"`
	StudentsPaid      int     `json:"studentsPaid"`
	DefaultersCount   int     `json:"defaultersCount"`
	OutstandingAmount float64 `json:"outstandingAmount"`
	AvgCollectionTime float64 `json:"avgCollectionTime"`
	OnTimePaymentRate float64 `json:"onTimePaymentRate"`
}

// FinancialDefaulterEntry accumulates every non-completed payment of one student.
type FinancialDefaulterEntry struct {
	ID              string     `json:"id"`
	StudentID       *string    `json:"studentId,omitempty"`
	StudentName     string     `json:"studentName"`
	ParentName      *string    `json:"parentName,omitempty"`
	ParentEmail     *string    `json:"parentEmail,omitempty"`
	ClassName       *string    `json:"className,omitempty"`
	Amount          float64    `json:"amount"`
	Term            string     `json:"term"`
	PaymentsCount   int        `json:"paymentsCount"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
}

// PeriodAnalytics is the summary/fee/class triple computed for one period.
type PeriodAnalytics struct {
	Summary         FinancialSummary       `json:"summary"`
	FeeCollection   []FeeCollectionEntry   `json:"feeCollection"`
	ClassCollection []ClassCollectionEntry `json:"classCollection"`
}

// FinancialAnalyticsSnapshot is the persisted financial dashboard document.
// It is replaced wholesale on every recompute.
type FinancialAnalyticsSnapshot struct {
	GeneratedAt time.Time                     `json:"generatedAt"`
	Periods     map[PeriodKey]PeriodAnalytics `json:"periods"`
	Defaulters  []FinancialDefaulterEntry     `json:"defaulters"`
}
