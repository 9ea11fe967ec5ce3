package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/classdesk/classdesk-api/internal/models"
)

// instructionKeys and assignedAtKeys are the fixed fallback priority orders
// for the variant field names the assignment detail endpoint uses. Earlier
// keys win.
var (
	instructionKeys = []string{"instructions", "description"}
	assignedAtKeys  = []string{"assigned_at", "assigned_date", "created_at"}
)

// GetAssignment fetches one assignment and normalizes its variant fields
// into the canonical detail shape.
func (c *Client) GetAssignment(ctx context.Context, id uint) (models.AssignmentDetail, error) {
	var fields map[string]json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/api/assignments/%d", id), &fields); err != nil {
		return models.AssignmentDetail{}, err
	}

	detail := models.AssignmentDetail{ID: id}

	if raw, ok := fields["id"]; ok {
		var parsed uint
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed > 0 {
			detail.ID = parsed
		}
	}
	if raw, ok := fields["classroom_id"]; ok {
		_ = json.Unmarshal(raw, &detail.ClassroomID)
	}
	if raw, ok := fields["title"]; ok {
		_ = json.Unmarshal(raw, &detail.Title)
	}

	detail.Instructions = firstString(fields, instructionKeys)
	detail.AssignedAt = firstTime(fields, assignedAtKeys)
	detail.DueDate = firstTime(fields, []string{"due_date", "due_at"})

	if raw, ok := fields["assigned_student_ids"]; ok {
		_ = json.Unmarshal(raw, &detail.AssignedStudentIDs)
	} else if raw, ok := fields["student_ids"]; ok {
		_ = json.Unmarshal(raw, &detail.AssignedStudentIDs)
	}

	return detail, nil
}

func firstString(fields map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}

func firstTime(fields map[string]json.RawMessage, keys []string) *time.Time {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil || value == "" {
			continue
		}
		instant, err := time.Parse(time.RFC3339, value)
		if err != nil {
			continue
		}
		return &instant
	}
	return nil
}
