package dto

// UnassignRequest carries the caller's confirmation for removing a student
// from an assignment. Confirmed must be true when the student has work in
// progress, since that progress becomes inaccessible to them.
type UnassignRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ReorderRequest moves one content item to a new position.
type ReorderRequest struct {
	FromIndex int `json:"from_index" validate:"gte=0"`
	ToIndex   int `json:"to_index" validate:"gte=0"`
}

// ReviewRequest records a grade and feedback for one submission.
type ReviewRequest struct {
	Score            *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Feedback         string   `json:"feedback" validate:"max=4000"`
	IncludeAISummary bool     `json:"include_ai_summary"`
}

// ReviewResponse reports the recorded review and the optional AI summary of
// the speech-scoring result.
type ReviewResponse struct {
	AssignmentID uint     `json:"assignment_id"`
	StudentID    uint     `json:"student_id"`
	Score        *float64 `json:"score,omitempty"`
	Feedback     string   `json:"feedback,omitempty"`
	AISummary    string   `json:"ai_summary,omitempty"`
}
