package models

import "time"

// AssignmentDetail is the canonical assignment shape after field-fallback
// normalization at the upstream boundary. Instructions and AssignedAt are
// already resolved from their variant source keys by the time this struct
// exists; nothing downstream re-applies fallbacks.
type AssignmentDetail struct {
	ID                 uint       `json:"id"`
	ClassroomID        uint       `json:"classroom_id"`
	Title              string     `json:"title"`
	Instructions       string     `json:"instructions"`
	AssignedAt         *time.Time `json:"assigned_at,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	AssignedStudentIDs []uint     `json:"assigned_student_ids"`
}

// ContentItem is one orderable piece of assignment content.
type ContentItem struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Position int    `json:"position"`
}
