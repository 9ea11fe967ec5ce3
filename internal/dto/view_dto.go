package dto

import (
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/progress"
)

// AssignmentViewResponse is the aggregated teacher view of one assignment:
// normalized detail, dense per-student progress in roster order, and the
// derived statistics. Degraded is true when the progress fetch failed and
// the roster rendered without progress data.
type AssignmentViewResponse struct {
	Assignment models.AssignmentDetail  `json:"assignment"`
	Progress   []models.StudentProgress `json:"progress"`
	Stats      models.AggregateStats    `json:"stats"`
	Degraded   bool                     `json:"degraded,omitempty"`
}

// StepperResponse is the rendered progress stepper for one student.
type StepperResponse struct {
	StudentID uint            `json:"student_id"`
	Status    string          `json:"status"`
	Steps     []progress.Step `json:"steps"`
}
