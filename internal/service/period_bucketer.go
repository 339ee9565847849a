package service

import (
	"time"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

// PeriodWindow is [now-StartDaysAgo, now-EndDaysAgo). A nil EndDaysAgo leaves the upper bound open.
type PeriodWindow struct {
	StartDaysAgo int
	EndDaysAgo   *int
}

func daysAgo(n int) *int { return &n }

// PeriodWindows defines every named window except "all", which is unbounded.
var PeriodWindows = map[models.PeriodKey]PeriodWindow{
	models.PeriodCurrentTerm:    {StartDaysAgo: 120},
	models.PeriodLastTerm:       {StartDaysAgo: 240, EndDaysAgo: daysAgo(120)},
	models.PeriodCurrentSession: {StartDaysAgo: 365},
	models.PeriodLastSession:    {StartDaysAgo: 730, EndDaysAgo: daysAgo(365)},
}

const day = 24 * time.Hour

// InPeriod reports whether the payment belongs to the period anchored at now.
// Payments without a usable date only belong to "all". Unknown keys match nothing.
func InPeriod(payment models.AnalyticsPayment, key models.PeriodKey, now time.Time) bool {
	if key == models.PeriodAll {
		return true
	}
	window, ok := PeriodWindows[key]
	if !ok {
		return false
	}
	date := payment.ResolvedDate()
	if date == nil {
		return false
	}
	start := now.Add(-time.Duration(window.StartDaysAgo) * day)
	if date.Before(start) {
		return false
	}
	if window.EndDaysAgo != nil {
		end := now.Add(-time.Duration(*window.EndDaysAgo) * day)
		if !date.Before(end) {
			return false
		}
	}
	return true
}

// FilterByPeriod returns the payments that belong to the period.
func FilterByPeriod(payments []models.AnalyticsPayment, key models.PeriodKey, now time.Time) []models.AnalyticsPayment {
	if key == models.PeriodAll {
		return payments
	}
	filtered := make([]models.AnalyticsPayment, 0, len(payments))
	for _, payment := range payments {
		if InPeriod(payment, key, now) {
			filtered = append(filtered, payment)
		}
	}
	return filtered
}

// IsPeriodKey reports whether key names a known period.
func IsPeriodKey(key models.PeriodKey) bool {
	if key == models.PeriodAll {
		return true
	}
	_, ok := PeriodWindows[key]
	return ok
}
