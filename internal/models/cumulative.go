package models

import "time"

// SubjectTrend describes how a subject total moved between the first and last term.
type SubjectTrend string

const (
	TrendUp     SubjectTrend = "up"
	TrendDown   SubjectTrend = "down"
	TrendStable SubjectTrend = "stable"
)

// CumulativeTermSubject is one subject row inside a term.
type CumulativeTermSubject struct {
	Subject  string  `json:"subject"`
	Total    float64 `json:"total"`
	Grade    string  `json:"grade"`
	Position *int    `json:"position,omitempty"`
}

// CumulativeTermRecord aggregates one term of a student's results.
type CumulativeTermRecord struct {
	Term           string                  `json:"term"`
	OverallAverage float64                 `json:"overallAverage"`
	OverallGrade   string                  `json:"overallGrade"`
	ClassPosition  int                     `json:"classPosition"`
	TotalStudents  int                     `json:"totalStudents"`
	Subjects       []CumulativeTermSubject `json:"subjects"`
}

// CumulativeSubjectAverage is a subject's average across all terms of a session.
type CumulativeSubjectAverage struct {
	Name    string       `json:"name"`
	Average float64      `json:"average"`
	Grade   string       `json:"grade"`
	Trend   SubjectTrend `json:"trend"`
}

// StudentCumulativeReportRecord is the per-student, per-session report card.
// It is regenerated from the result ledger, never patched.
type StudentCumulativeReportRecord struct {
	StudentID          string                     `json:"studentId"`
	StudentName        string                     `json:"studentName"`
	ClassName          string                     `json:"className"`
	Session            string                     `json:"session"`
	Terms              []CumulativeTermRecord     `json:"terms"`
	CumulativeAverage  float64                    `json:"cumulativeAverage"`
	CumulativeGrade    string                     `json:"cumulativeGrade"`
	CumulativePosition int                        `json:"cumulativePosition"`
	TotalStudents      int                        `json:"totalStudents"`
	SubjectAverages    []CumulativeSubjectAverage `json:"subjectAverages"`
	GeneratedAt        time.Time                  `json:"generatedAt"`
}

// Key returns the (studentId, session) identity of the report.
func (r StudentCumulativeReportRecord) Key() string {
	return r.StudentID + "|" + r.Session
}
