package models

import "time"

// ExamResultStatus tracks the publication state of a result row.
type ExamResultStatus string

const (
	ExamResultPending   ExamResultStatus = "pending"
	ExamResultPublished ExamResultStatus = "published"
	ExamResultWithheld  ExamResultStatus = "withheld"
)

// ExamScheduleStatus tracks whether scores have been entered for an exam.
type ExamScheduleStatus string

const (
	ExamScheduleScheduled ExamScheduleStatus = "scheduled"
	ExamScheduleCompleted ExamScheduleStatus = "completed"
)

// ExamSchedule is the exam a result row belongs to.
type ExamSchedule struct {
	ID        string             `json:"id"`
	ClassID   string             `json:"classId"`
	ClassName string             `json:"className"`
	Subject   string             `json:"subject"`
	Term      string             `json:"term"`
	Session   string             `json:"session"`
	ExamDate  *time.Time         `json:"examDate,omitempty"`
	Status    ExamScheduleStatus `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// ExamResultRecord is one student's scores for one exam.
type ExamResultRecord struct {
	ID            string           `json:"id"`
	ExamID        string           `json:"examId"`
	StudentID     string           `json:"studentId"`
	StudentName   string           `json:"studentName"`
	ClassID       string           `json:"classId"`
	ClassName     string           `json:"className"`
	Subject       string           `json:"subject"`
	Term          string           `json:"term"`
	Session       string           `json:"session"`
	CA1           float64          `json:"ca1"`
	CA2           float64          `json:"ca2"`
	Assignment    float64          `json:"assignment"`
	Exam          float64          `json:"exam"`
	Total         float64          `json:"total"`
	Grade         string           `json:"grade"`
	Position      *int             `json:"position,omitempty"`
	TotalStudents *int             `json:"totalStudents,omitempty"`
	Remarks       string           `json:"remarks,omitempty"`
	Status        ExamResultStatus `json:"status"`
	PublishedAt   *time.Time       `json:"publishedAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// ExamResultInput is a score entry submitted by a teacher.
type ExamResultInput struct {
	StudentID     string           `json:"studentId" validate:"required"`
	StudentName   string           `json:"studentName"`
	CA1           float64          `json:"ca1" validate:"gte=0"`
	CA2           float64          `json:"ca2" validate:"gte=0"`
	Assignment    float64          `json:"assignment" validate:"gte=0"`
	Exam          float64          `json:"exam" validate:"gte=0"`
	Position      *int             `json:"position,omitempty" validate:"omitempty,gte=1"`
	TotalStudents *int             `json:"totalStudents,omitempty" validate:"omitempty,gte=1"`
	Remarks       string           `json:"remarks,omitempty"`
	Status        ExamResultStatus `json:"status,omitempty" validate:"omitempty,oneof=pending published withheld"`
	Grade         string           `json:"grade,omitempty"`
}
