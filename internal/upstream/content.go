package upstream

import (
	"context"
	"fmt"

	"github.com/classdesk/classdesk-api/internal/models"
)

// ListContents fetches the ordered content items of an assignment.
func (c *Client) ListContents(ctx context.Context, assignmentID uint) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := c.get(ctx, fmt.Sprintf("/api/assignments/%d/contents", assignmentID), &items); err != nil {
		return nil, err
	}
	return items, nil
}
