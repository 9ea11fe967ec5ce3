package upstream

import (
	"context"
	"fmt"

	"github.com/classdesk/classdesk-api/internal/models"
)

// ListRoster fetches the full student membership of a classroom. Callers
// degrade to an empty roster on error; the roster endpoint is never fatal
// to a page.
func (c *Client) ListRoster(ctx context.Context, classroomID uint) ([]models.Student, error) {
	var roster []models.Student
	if err := c.get(ctx, fmt.Sprintf("/api/classrooms/%d/students", classroomID), &roster); err != nil {
		return nil, err
	}
	return roster, nil
}
