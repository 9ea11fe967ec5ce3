package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/classdesk/classdesk-api/internal/progress"
)

// FetchProgress retrieves the sparse per-student progress records for an
// assignment. The endpoint returns either a bare array or an object with a
// "data" array; both shapes normalize identically. Payloads that deviate
// from the expected contract are logged but still decoded tolerantly.
func (c *Client) FetchProgress(ctx context.Context, assignmentID uint) ([]progress.RawRecord, error) {
	var body json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/api/assignments/%d/progress", assignmentID), &body); err != nil {
		return nil, err
	}

	if err := validateProgressPayload(body); err != nil {
		c.logger.Warn().Err(err).Uint("assignment_id", assignmentID).Msg("progress payload deviates from contract")
	}

	var records []progress.RawRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var envelope struct {
		Data []progress.RawRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode progress payload: %w", err)
	}

	return envelope.Data, nil
}
