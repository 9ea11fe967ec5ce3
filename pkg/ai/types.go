package ai

import "context"

// ReviewInput carries the speech-scoring artefacts a teacher is reviewing.
type ReviewInput struct {
	AssignmentTitle string
	StudentName     string
	Overall         float64
	Pronunciation   float64
	Fluency         float64
	Completeness    float64
	Transcript      string
}

// ReviewSummary is the short, teacher-facing digest of a scoring result.
type ReviewSummary struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// Summarizer describes an AI model capable of digesting speech scores into
// review notes.
type Summarizer interface {
	Summarize(ctx context.Context, input ReviewInput) (ReviewSummary, error)
}
