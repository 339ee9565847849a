package service

import (
	"sort"
	"strings"
	"time"

	"github.com/umarmf343/vea-2025-sub003/internal/models"
)

const unknownTermOrder = 99

// TermOrder ranks a term label: First, Second, Third, then anything else.
func TermOrder(term string) int {
	switch strings.ToLower(strings.TrimSpace(term)) {
	case "first term", "first", "1st term", "term 1":
		return 1
	case "second term", "second", "2nd term", "term 2":
		return 2
	case "third term", "third", "3rd term", "term 3":
		return 3
	default:
		return unknownTermOrder
	}
}

type subjectPoint struct {
	order int
	term  string
	total float64
}

// BuildCumulativeReports groups results by (studentId, session) and builds one report per group.
// A non-empty session restricts the input to that session. Output is ordered by student then session.
func BuildCumulativeReports(results []models.ExamResultRecord, session string, now time.Time) []models.StudentCumulativeReportRecord {
	groups := make(map[string][]models.ExamResultRecord)
	var keys []string
	for _, result := range results {
		if session != "" && result.Session != session {
			continue
		}
		key := result.StudentID + "|" + result.Session
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], result)
	}
	sort.Strings(keys)

	reports := make([]models.StudentCumulativeReportRecord, 0, len(keys))
	for _, key := range keys {
		reports = append(reports, buildStudentReport(groups[key], now))
	}
	return reports
}

func buildStudentReport(rows []models.ExamResultRecord, now time.Time) models.StudentCumulativeReportRecord {
	latest := rows[0]
	for _, row := range rows[1:] {
		if row.UpdatedAt.After(latest.UpdatedAt) {
			latest = row
		}
	}

	byTerm := make(map[string][]models.ExamResultRecord)
	for _, row := range rows {
		byTerm[row.Term] = append(byTerm[row.Term], row)
	}

	terms := make([]models.CumulativeTermRecord, 0, len(byTerm))
	for term, termRows := range byTerm {
		terms = append(terms, buildTermRecord(term, termRows))
	}
	sort.SliceStable(terms, func(i, j int) bool {
		oi, oj := TermOrder(terms[i].Term), TermOrder(terms[j].Term)
		if oi != oj {
			return oi < oj
		}
		return terms[i].Term < terms[j].Term
	})

	report := models.StudentCumulativeReportRecord{
		StudentID:       latest.StudentID,
		StudentName:     latest.StudentName,
		ClassName:       latest.ClassName,
		Session:         latest.Session,
		Terms:           terms,
		SubjectAverages: buildSubjectAverages(rows),
		GeneratedAt:     now.UTC(),
	}

	var averageSum, positionSum float64
	for _, term := range terms {
		averageSum += term.OverallAverage
		positionSum += float64(term.ClassPosition)
		if term.TotalStudents > report.TotalStudents {
			report.TotalStudents = term.TotalStudents
		}
	}
	if len(terms) > 0 {
		report.CumulativeAverage = roundHalfUp(averageSum / float64(len(terms)))
		report.CumulativePosition = atLeastOne(roundHalfUp(positionSum / float64(len(terms))))
	} else {
		report.CumulativePosition = 1
	}
	report.CumulativeGrade = GradeFor(report.CumulativeAverage)
	return report
}

// buildTermRecord averages one term. classPosition is the mean of the known per-subject
// positions; averaging ranks across subjects is kept for compatibility with existing report cards.
func buildTermRecord(term string, rows []models.ExamResultRecord) models.CumulativeTermRecord {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Subject < rows[j].Subject })

	record := models.CumulativeTermRecord{Term: term, Subjects: make([]models.CumulativeTermSubject, 0, len(rows))}
	var totalSum, positionSum float64
	var positioned int
	for _, row := range rows {
		totalSum += row.Total
		if row.Position != nil {
			positionSum += float64(*row.Position)
			positioned++
		}
		if row.TotalStudents != nil && *row.TotalStudents > record.TotalStudents {
			record.TotalStudents = *row.TotalStudents
		}
		record.Subjects = append(record.Subjects, models.CumulativeTermSubject{
			Subject:  row.Subject,
			Total:    row.Total,
			Grade:    row.Grade,
			Position: row.Position,
		})
	}
	record.OverallAverage = roundHalfUp(totalSum / float64(len(rows)))
	record.OverallGrade = GradeFor(record.OverallAverage)
	record.ClassPosition = 1
	if positioned > 0 {
		record.ClassPosition = atLeastOne(roundHalfUp(positionSum / float64(positioned)))
	}
	return record
}

func buildSubjectAverages(rows []models.ExamResultRecord) []models.CumulativeSubjectAverage {
	points := make(map[string][]subjectPoint)
	for _, row := range rows {
		points[row.Subject] = append(points[row.Subject], subjectPoint{order: TermOrder(row.Term), term: row.Term, total: row.Total})
	}

	names := make([]string, 0, len(points))
	for name := range points {
		names = append(names, name)
	}
	sort.Strings(names)

	averages := make([]models.CumulativeSubjectAverage, 0, len(names))
	for _, name := range names {
		series := points[name]
		sort.SliceStable(series, func(i, j int) bool {
			if series[i].order != series[j].order {
				return series[i].order < series[j].order
			}
			return series[i].term < series[j].term
		})
		var sum float64
		for _, p := range series {
			sum += p.total
		}
		average := roundHalfUp(sum / float64(len(series)))
		averages = append(averages, models.CumulativeSubjectAverage{
			Name:    name,
			Average: average,
			Grade:   GradeFor(average),
			Trend:   trendOf(series[0].total, series[len(series)-1].total),
		})
	}
	return averages
}

// trendOf compares the last total with the first, ignoring the terms in between.
func trendOf(first, last float64) models.SubjectTrend {
	switch {
	case last > first:
		return models.TrendUp
	case last < first:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}
