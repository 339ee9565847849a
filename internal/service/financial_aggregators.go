package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

const (
	unassignedClass    = "Unassigned"
	unknownStudentName = "Unknown Student"
	// DefaultOnTimeDays is the completion delay still counted as on time.
	DefaultOnTimeDays = 14
)

var hundred = decimal.NewFromInt(100)

type collectionBucket struct {
	label     string
	collected decimal.Decimal
	expected  decimal.Decimal
	students  map[string]struct{}
}

func (b *collectionBucket) add(payment models.AnalyticsPayment) {
	amount := decimal.NewFromFloat(payment.Amount)
	switch payment.Status {
	case models.PaymentStatusCompleted:
		b.collected = b.collected.Add(amount)
		b.expected = b.expected.Add(amount)
	case models.PaymentStatusPending:
		b.expected = b.expected.Add(amount)
	}
}

func (b *collectionBucket) percentage() float64 {
	return percentageOf(b.collected, b.expected)
}

func percentageOf(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return clampPercentage(roundOneDecimal(part.Div(whole).Mul(hundred).InexactFloat64()))
}

// BuildFeeCollection groups payments by calendar month of their resolved date, oldest first.
// Undated payments are skipped.
func BuildFeeCollection(payments []models.AnalyticsPayment) []models.FeeCollectionEntry {
	buckets := make(map[string]*collectionBucket)
	for _, payment := range payments {
		date := payment.ResolvedDate()
		if date == nil {
			continue
		}
		key := date.Format("2006-01")
		bucket, ok := buckets[key]
		if !ok {
			bucket = &collectionBucket{label: date.Format("Jan 2006")}
			buckets[key] = bucket
		}
		bucket.add(payment)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]models.FeeCollectionEntry, 0, len(keys))
	for _, key := range keys {
		bucket := buckets[key]
		entries = append(entries, models.FeeCollectionEntry{
			Month:      bucket.label,
			Collected:  bucket.collected.InexactFloat64(),
			Expected:   bucket.expected.InexactFloat64(),
			Percentage: bucket.percentage(),
		})
	}
	return entries
}

// BuildClassCollection groups payments by class, largest collected amount first.
func BuildClassCollection(payments []models.AnalyticsPayment) []models.ClassCollectionEntry {
	buckets := make(map[string]*collectionBucket)
	for _, payment := range payments {
		label := unassignedClass
		if payment.ClassName != nil {
			label = *payment.ClassName
		}
		bucket, ok := buckets[label]
		if !ok {
			bucket = &collectionBucket{label: label, students: make(map[string]struct{})}
			buckets[label] = bucket
		}
		bucket.add(payment)
		if payment.IsCompleted() {
			bucket.students[classStudentKey(payment)] = struct{}{}
		}
	}

	entries := make([]models.ClassCollectionEntry, 0, len(buckets))
	for _, bucket := range buckets {
		entries = append(entries, models.ClassCollectionEntry{
			Class:      bucket.label,
			Collected:  bucket.collected.InexactFloat64(),
			Expected:   bucket.expected.InexactFloat64(),
			Students:   len(bucket.students),
			Percentage: bucket.percentage(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Collected != entries[j].Collected {
			return entries[i].Collected > entries[j].Collected
		}
		return entries[i].Class < entries[j].Class
	})
	return entries
}

func classStudentKey(payment models.AnalyticsPayment) string {
	if payment.StudentID != nil && *payment.StudentID != "" {
		return *payment.StudentID
	}
	return payment.StudentName
}

// CalculateSummary computes headline statistics over payments.
// Collection time statistics only consider completed payments carrying both timestamps.
func CalculateSummary(payments []models.AnalyticsPayment, onTimeDays int) models.FinancialSummary {
	if onTimeDays <= 0 {
		onTimeDays = DefaultOnTimeDays
	}
	collected := decimal.Zero
	outstanding := decimal.Zero
	paid := make(map[string]struct{})
	defaulters := make(map[string]struct{})
	var totalDays float64
	var timed, onTime int

	for _, payment := range payments {
		amount := decimal.NewFromFloat(payment.Amount)
		if !payment.IsCompleted() {
			outstanding = outstanding.Add(amount)
			defaulters[payment.StudentKey()] = struct{}{}
			continue
		}
		collected = collected.Add(amount)
		paid[payment.StudentKey()] = struct{}{}
		if payment.CreatedAt == nil || payment.UpdatedAt == nil {
			continue
		}
		days := payment.UpdatedAt.Sub(*payment.CreatedAt).Hours() / 24
		totalDays += days
		timed++
		if days <= float64(onTimeDays) {
			onTime++
		}
	}

	summary := models.FinancialSummary{
		TotalCollected:    collected.InexactFloat64(),
		OutstandingAmount: outstanding.InexactFloat64(),
		CollectionRate:    percentageOf(collected, collected.Add(outstanding)),
		StudentsPaid:      len(paid),
		DefaultersCount:   len(defaulters),
	}
	if timed > 0 {
		summary.AvgCollectionTime = roundOneDecimal(totalDays / float64(timed))
		summary.OnTimePaymentRate = clampPercentage(roundOneDecimal(float64(onTime) / float64(timed) * 100))
	}
	return summary
}

// TermLabelFor maps a date onto the school term heuristic used for defaulter rows.
func TermLabelFor(t time.Time) string {
	switch month := t.Month(); {
	case month <= time.April:
		return "First Term"
	case month <= time.July:
		return "Second Term"
	case month <= time.October:
		return "Third Term"
	default:
		return "Holiday Session"
	}
}

type defaulterAccumulator struct {
	entry  models.FinancialDefaulterEntry
	amount decimal.Decimal
}

// BuildDefaulters accumulates every non-completed payment per student, largest debt first.
// Undated payments take their term label from now.
func BuildDefaulters(payments []models.AnalyticsPayment, now time.Time) []models.FinancialDefaulterEntry {
	accumulators := make(map[string]*defaulterAccumulator)
	for _, payment := range payments {
		if payment.IsCompleted() {
			continue
		}
		key := payment.StudentKey()
		acc, ok := accumulators[key]
		if !ok {
			acc = &defaulterAccumulator{entry: models.FinancialDefaulterEntry{ID: key, StudentName: payment.StudentName}}
			accumulators[key] = acc
		}
		acc.amount = acc.amount.Add(decimal.NewFromFloat(payment.Amount))
		acc.entry.PaymentsCount++
		fillDefaulter(&acc.entry, payment)
		if date := payment.ResolvedDate(); date != nil {
			if acc.entry.LastPaymentDate == nil || date.After(*acc.entry.LastPaymentDate) {
				d := *date
				acc.entry.LastPaymentDate = &d
			}
		}
	}

	entries := make([]models.FinancialDefaulterEntry, 0, len(accumulators))
	for _, acc := range accumulators {
		entry := acc.entry
		entry.Amount = acc.amount.InexactFloat64()
		if entry.LastPaymentDate != nil {
			entry.Term = TermLabelFor(*entry.LastPaymentDate)
		} else {
			entry.Term = TermLabelFor(now)
		}
		if entry.StudentName == "" {
			entry.StudentName = unknownStudentName
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Amount != entries[j].Amount {
			return entries[i].Amount > entries[j].Amount
		}
		if entries[i].StudentName != entries[j].StudentName {
			return entries[i].StudentName < entries[j].StudentName
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

func fillDefaulter(entry *models.FinancialDefaulterEntry, payment models.AnalyticsPayment) {
	if entry.StudentID == nil {
		entry.StudentID = payment.StudentID
	}
	if entry.StudentName == "" {
		entry.StudentName = payment.StudentName
	}
	if entry.ParentName == nil {
		entry.ParentName = payment.ParentName
	}
	if entry.ParentEmail == nil {
		entry.ParentEmail = payment.ParentEmail
	}
	if entry.ClassName == nil {
		entry.ClassName = payment.ClassName
	}
}

// BuildFinancialSnapshot normalises raw payments and builds every period plus the global defaulter list.
func BuildFinancialSnapshot(raws []interface{}, now time.Time, onTimeDays int) models.FinancialAnalyticsSnapshot {
	payments := NormalizePayments(raws)
	snapshot := models.FinancialAnalyticsSnapshot{
		GeneratedAt: now.UTC(),
		Periods:     make(map[models.PeriodKey]models.PeriodAnalytics, len(models.PeriodKeys)),
		Defaulters:  BuildDefaulters(payments, now),
	}
	for _, key := range models.PeriodKeys {
		scoped := FilterByPeriod(payments, key, now)
		snapshot.Periods[key] = models.PeriodAnalytics{
			Summary:         CalculateSummary(scoped, onTimeDays),
			FeeCollection:   BuildFeeCollection(scoped),
			ClassCollection: BuildClassCollection(scoped),
		}
	}
	return snapshot
}
