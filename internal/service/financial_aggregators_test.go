package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

var analyticsNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

func TestGradeForBands(t *testing.T) {
	cases := map[float64]string{
		100: "A1", 75: "A1", 74.9: "B2", 70: "B2", 65: "B3", 60: "C4",
		55: "C5", 50: "C6", 45: "D7", 40: "E8", 39.99: "F9", 0: "F9",
	}
	for total, want := range cases {
		assert.Equal(t, want, GradeFor(total), "total %v", total)
	}
}

func TestRoundingHelpers(t *testing.T) {
	assert.Equal(t, 3.0, roundHalfUp(2.5))
	assert.Equal(t, 2.0, roundHalfUp(2.49))
	assert.Equal(t, 66.7, roundOneDecimal(200.0/3))
	assert.Equal(t, 100.0, clampPercentage(120))
	assert.Equal(t, 0.0, clampPercentage(-3))
}

func TestCalculateSummaryScenario(t *testing.T) {
	created := analyticsNow.Add(-10 * day)
	paidAt := created.Add(5 * day)
	payments := []models.AnalyticsPayment{
		{ID: "p1", StudentID: strPtr("s1"), Amount: 100, Status: models.PaymentStatusCompleted, CreatedAt: &created, UpdatedAt: &paidAt},
		{ID: "p2", StudentID: strPtr("s2"), Amount: 50, Status: models.PaymentStatusPending, CreatedAt: &created},
	}

	summary := CalculateSummary(payments, DefaultOnTimeDays)
	assert.Equal(t, 100.0, summary.TotalCollected)
	assert.Equal(t, 50.0, summary.OutstandingAmount)
	assert.Equal(t, 66.7, summary.CollectionRate)
	assert.Equal(t, 1, summary.StudentsPaid)
	assert.Equal(t, 1, summary.DefaultersCount)
	assert.Equal(t, 5.0, summary.AvgCollectionTime)
	assert.Equal(t, 100.0, summary.OnTimePaymentRate)
}

func TestCalculateSummaryEmpty(t *testing.T) {
	summary := CalculateSummary(nil, DefaultOnTimeDays)
	assert.Equal(t, models.FinancialSummary{}, summary)
}

func TestCalculateSummaryLatePayment(t *testing.T) {
	created := analyticsNow.Add(-40 * day)
	paidAt := created.Add(20 * day)
	payments := []models.AnalyticsPayment{
		{ID: "p1", Amount: 10, Status: models.PaymentStatusCompleted, CreatedAt: &created, UpdatedAt: &paidAt},
		{ID: "p2", Amount: 10, Status: models.PaymentStatusCompleted, UpdatedAt: &paidAt},
	}
	summary := CalculateSummary(payments, 14)
	assert.Equal(t, 20.0, summary.AvgCollectionTime)
	assert.Equal(t, 0.0, summary.OnTimePaymentRate)
	assert.Equal(t, 100.0, summary.CollectionRate)
	assert.Equal(t, 2, summary.StudentsPaid)
}

func TestBuildFeeCollectionOrdersMonths(t *testing.T) {
	jan := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	payments := []models.AnalyticsPayment{
		{ID: "a", Amount: 30, Status: models.PaymentStatusCompleted, UpdatedAt: &feb},
		{ID: "b", Amount: 10, Status: models.PaymentStatusPending, UpdatedAt: &feb},
		{ID: "c", Amount: 5, Status: models.PaymentStatusCompleted, CreatedAt: &jan},
		{ID: "d", Amount: 7, Status: models.PaymentStatusFailed, UpdatedAt: &dec},
		{ID: "undated", Amount: 1000, Status: models.PaymentStatusCompleted},
	}

	entries := BuildFeeCollection(payments)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"Dec 2024", "Jan 2025", "Feb 2025"}, []string{entries[0].Month, entries[1].Month, entries[2].Month})
	assert.Equal(t, models.FeeCollectionEntry{Month: "Dec 2024"}, entries[0])
	assert.Equal(t, 100.0, entries[1].Percentage)
	assert.Equal(t, 30.0, entries[2].Collected)
	assert.Equal(t, 40.0, entries[2].Expected)
	assert.Equal(t, 75.0, entries[2].Percentage)
}

func TestBuildClassCollection(t *testing.T) {
	payments := []models.AnalyticsPayment{
		{ID: "1", StudentID: strPtr("s1"), ClassName: strPtr("JSS 1"), Amount: 40, Status: models.PaymentStatusCompleted},
		{ID: "2", StudentID: strPtr("s1"), ClassName: strPtr("JSS 1"), Amount: 10, Status: models.PaymentStatusCompleted},
		{ID: "3", StudentName: "Chidi", ClassName: strPtr("JSS 1"), Amount: 50, Status: models.PaymentStatusPending},
		{ID: "4", StudentName: "Dayo", ClassName: strPtr("JSS 2"), Amount: 80, Status: models.PaymentStatusCompleted},
		{ID: "5", StudentName: "Efe", Amount: 20, Status: models.PaymentStatusCompleted},
	}

	entries := BuildClassCollection(payments)
	require.Len(t, entries, 3)
	assert.Equal(t, "JSS 2", entries[0].Class)
	assert.Equal(t, "JSS 1", entries[1].Class)
	assert.Equal(t, 50.0, entries[1].Collected)
	assert.Equal(t, 100.0, entries[1].Expected)
	assert.Equal(t, 1, entries[1].Students)
	assert.Equal(t, 50.0, entries[1].Percentage)
	assert.Equal(t, unassignedClass, entries[2].Class)
	assert.Equal(t, 1, entries[2].Students)
}

func TestBuildDefaulters(t *testing.T) {
	june := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	sept := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	payments := []models.AnalyticsPayment{
		{ID: "1", StudentID: strPtr("s1"), StudentName: "Ada", Amount: 30, Status: models.PaymentStatusPending, UpdatedAt: &june},
		{ID: "2", StudentID: strPtr("s1"), StudentName: "Ada", ParentEmail: strPtr("p@x.io"), Amount: 20, Status: models.PaymentStatusFailed, UpdatedAt: &sept},
		{ID: "3", StudentID: strPtr("s1"), StudentName: "Ada", Amount: 500, Status: models.PaymentStatusCompleted, UpdatedAt: &sept},
		{ID: "4", StudentID: strPtr("s2"), StudentName: "Bayo", Amount: 10, Status: models.PaymentStatusCompleted},
		{ID: "pay-x", Amount: 15, Status: models.PaymentStatusPending},
	}

	defaulters := BuildDefaulters(payments, analyticsNow)
	require.Len(t, defaulters, 2)

	first := defaulters[0]
	assert.Equal(t, "s1", first.ID)
	assert.Equal(t, 50.0, first.Amount)
	assert.Equal(t, 2, first.PaymentsCount)
	assert.Equal(t, "Third Term", first.Term)
	require.NotNil(t, first.LastPaymentDate)
	assert.Equal(t, sept, *first.LastPaymentDate)
	require.NotNil(t, first.ParentEmail)

	second := defaulters[1]
	assert.Equal(t, "pay-x", second.ID)
	assert.Equal(t, unknownStudentName, second.StudentName)
	assert.Equal(t, "First Term", second.Term)
	assert.Nil(t, second.LastPaymentDate)

	for _, d := range defaulters {
		assert.NotEqual(t, "s2", d.ID)
	}
}

func TestTermLabelFor(t *testing.T) {
	assert.Equal(t, "First Term", TermLabelFor(time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Second Term", TermLabelFor(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Third Term", TermLabelFor(time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Holiday Session", TermLabelFor(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildFinancialSnapshotIsDeterministic(t *testing.T) {
	raws := []interface{}{
		map[string]interface{}{"id": "a", "studentId": "s1", "amount": 100.0, "status": "completed", "className": "JSS 1", "createdAt": "2025-03-01T00:00:00Z", "updatedAt": "2025-03-06T00:00:00Z"},
		map[string]interface{}{"id": "b", "studentId": "s2", "amount": "50", "status": "pending", "class": "JSS 2", "createdAt": "2025-03-02T00:00:00Z"},
		map[string]interface{}{"id": "c", "metadata": map[string]interface{}{"total": 20, "status": "paid"}},
		"not a payment",
	}

	first := BuildFinancialSnapshot(raws, analyticsNow, DefaultOnTimeDays)
	second := BuildFinancialSnapshot(raws, analyticsNow.Add(time.Minute), DefaultOnTimeDays)

	require.Len(t, first.Periods, len(models.PeriodKeys))
	a, err := json.Marshal(first.Periods)
	require.NoError(t, err)
	b, err := json.Marshal(second.Periods)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))

	all := first.Periods[models.PeriodAll]
	assert.Equal(t, 120.0, all.Summary.TotalCollected)
	assert.Equal(t, 50.0, all.Summary.OutstandingAmount)
	assert.Len(t, all.FeeCollection, 1)
	assert.Equal(t, 100.0, first.Periods[models.PeriodCurrentTerm].Summary.TotalCollected)

	require.Len(t, first.Defaulters, 1)
	assert.Equal(t, "s2", first.Defaulters[0].ID)
}
