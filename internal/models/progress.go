package models

import (
	"strings"
	"time"
)

// AssignmentStatus is the canonical per-student assignment state. The six
// real statuses form the backend progression; StatusUnassigned is a
// client-side synthetic state for roster members the assignment was never
// distributed to, mutually exclusive with all real statuses.
type AssignmentStatus string

const (
	StatusUnassigned  AssignmentStatus = "UNASSIGNED"
	StatusNotStarted  AssignmentStatus = "NOT_STARTED"
	StatusInProgress  AssignmentStatus = "IN_PROGRESS"
	StatusSubmitted   AssignmentStatus = "SUBMITTED"
	StatusReturned    AssignmentStatus = "RETURNED"
	StatusResubmitted AssignmentStatus = "RESUBMITTED"
	StatusGraded      AssignmentStatus = "GRADED"
)

var statusOrdinals = map[AssignmentStatus]int{
	StatusNotStarted:  0,
	StatusInProgress:  1,
	StatusSubmitted:   2,
	StatusReturned:    3,
	StatusResubmitted: 4,
	StatusGraded:      5,
}

// Ordinal returns the position of a real status in the linear progression.
// StatusUnassigned and unknown values report -1.
func (s AssignmentStatus) Ordinal() int {
	if ordinal, ok := statusOrdinals[s]; ok {
		return ordinal
	}
	return -1
}

// IsReal reports whether the status belongs to the backend progression.
func (s AssignmentStatus) IsReal() bool {
	_, ok := statusOrdinals[s]
	return ok
}

// HasRecordedWork reports whether a student in this status has work the
// platform already holds on record. Unassigning such a student is blocked.
func (s AssignmentStatus) HasRecordedWork() bool {
	return s == StatusSubmitted || s == StatusReturned || s == StatusResubmitted || s == StatusGraded
}

// ParseStatus normalizes a raw status string from an upstream payload.
// Matching is case-insensitive; the legacy "COMPLETED" value maps to
// StatusGraded. The second return value is false for unrecognized input.
func ParseStatus(raw string) (AssignmentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "NOT_STARTED":
		return StatusNotStarted, true
	case "IN_PROGRESS":
		return StatusInProgress, true
	case "SUBMITTED":
		return StatusSubmitted, true
	case "RETURNED":
		return StatusReturned, true
	case "RESUBMITTED":
		return StatusResubmitted, true
	case "GRADED", "COMPLETED":
		return StatusGraded, true
	case "UNASSIGNED":
		return StatusUnassigned, true
	default:
		return "", false
	}
}

// StatusTimestamps carries the optional instants attached to a progress
// record. They disambiguate how a student reached GRADED when the current
// status alone is not enough for display ordering.
type StatusTimestamps struct {
	StartedAt     *time.Time `json:"started_at,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
	GradedAt      *time.Time `json:"graded_at,omitempty"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	ResubmittedAt *time.Time `json:"resubmitted_at,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// StudentProgress is the resolved per (assignment, student) state. Optional
// fields stay nil when the upstream record carried no value so consumers can
// tell "no data" from "data is zero".
type StudentProgress struct {
	StudentID      uint              `json:"student_id"`
	StudentName    string            `json:"student_name"`
	Status         AssignmentStatus  `json:"status"`
	IsAssigned     bool              `json:"is_assigned"`
	Score          *float64          `json:"score,omitempty"`
	SubmissionDate *time.Time        `json:"submission_date,omitempty"`
	Attempts       int               `json:"attempts"`
	LastActivity   *time.Time        `json:"last_activity,omitempty"`
	Timestamps     *StatusTimestamps `json:"timestamps,omitempty"`
}

// AggregateStats summarizes a resolved progress collection. Total counts
// only assigned students; CompletionRate is a rounded percentage and is 0
// when nobody is assigned.
type AggregateStats struct {
	Total          int `json:"total"`
	NotStarted     int `json:"not_started"`
	InProgress     int `json:"in_progress"`
	Submitted      int `json:"submitted"`
	Returned       int `json:"returned"`
	Resubmitted    int `json:"resubmitted"`
	Graded         int `json:"graded"`
	Unassigned     int `json:"unassigned"`
	CompletionRate int `json:"completion_rate"`
}
