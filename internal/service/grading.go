package service

import "math"

type gradeBand struct {
	min   float64
	grade string
}

// Bands are checked top-down; the first band whose minimum is reached wins.
var gradeBands = []gradeBand{
	{75, "A1"},
	{70, "B2"},
	{65, "B3"},
	{60, "C4"},
	{55, "C5"},
	{50, "C6"},
	{45, "D7"},
	{40, "E8"},
}

// GradeFor maps a numeric total to its letter grade.
func GradeFor(total float64) string {
	for _, band := range gradeBands {
		if total >= band.min {
			return band.grade
		}
	}
	return "F9"
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// roundOneDecimal rounds to a single decimal place.
func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampPercentage(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
