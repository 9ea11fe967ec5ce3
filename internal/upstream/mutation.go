package upstream

import (
	"context"
	"fmt"
)

type rosterPatch struct {
	Add    []uint `json:"add,omitempty"`
	Remove []uint `json:"remove,omitempty"`
}

// AssignStudent adds a student to the assignment's assigned list.
func (c *Client) AssignStudent(ctx context.Context, assignmentID, studentID uint) error {
	return c.patch(ctx, fmt.Sprintf("/api/assignments/%d/students", assignmentID), rosterPatch{Add: []uint{studentID}})
}

// UnassignStudent removes a student from the assignment's assigned list.
// The backend may refuse with a ProtectedError when policy forbids it.
func (c *Client) UnassignStudent(ctx context.Context, assignmentID, studentID uint) error {
	return c.patch(ctx, fmt.Sprintf("/api/assignments/%d/students", assignmentID), rosterPatch{Remove: []uint{studentID}})
}

type reorderPatch struct {
	OrderedIDs []uint `json:"ordered_ids"`
}

// ReorderContents persists a new content ordering for the assignment.
func (c *Client) ReorderContents(ctx context.Context, assignmentID uint, orderedIDs []uint) error {
	return c.patch(ctx, fmt.Sprintf("/api/assignments/%d/contents/order", assignmentID), reorderPatch{OrderedIDs: orderedIDs})
}

type reviewPatch struct {
	Score    *float64 `json:"score,omitempty"`
	Feedback string   `json:"feedback,omitempty"`
}

// SubmitReview records a grade and feedback for one student's submission.
func (c *Client) SubmitReview(ctx context.Context, assignmentID, studentID uint, score *float64, feedback string) error {
	return c.patch(ctx, fmt.Sprintf("/api/assignments/%d/submissions/%d", assignmentID, studentID), reviewPatch{Score: score, Feedback: feedback})
}
