package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/classdesk/classdesk-api/internal/models"
)

// SpeechScore is the AI speech-scoring result attached to a student's
// spoken submission, fetched for grading review.
type SpeechScore struct {
	Overall       float64 `json:"overall"`
	Pronunciation float64 `json:"pronunciation"`
	Fluency       float64 `json:"fluency"`
	Completeness  float64 `json:"completeness"`
	Transcript    string  `json:"transcript"`
}

// FetchSpeechScore retrieves the speech-scoring result for one submission.
func (c *Client) FetchSpeechScore(ctx context.Context, assignmentID, studentID uint) (SpeechScore, error) {
	var score SpeechScore
	path := fmt.Sprintf("/api/assignments/%d/submissions/%d/speech-score", assignmentID, studentID)
	if err := c.get(ctx, path, &score); err != nil {
		return SpeechScore{}, err
	}
	return score, nil
}

// GetSubscription fetches the organization's billing state. The plan name
// appears under either "plan" or "tier" depending on backend version.
func (c *Client) GetSubscription(ctx context.Context) (models.Subscription, error) {
	var fields map[string]json.RawMessage
	if err := c.get(ctx, "/api/billing/subscription", &fields); err != nil {
		return models.Subscription{}, err
	}

	subscription := models.Subscription{
		Plan:   firstString(fields, []string{"plan", "tier"}),
		Status: firstString(fields, []string{"status", "state"}),
	}
	if raw, ok := fields["seats"]; ok {
		_ = json.Unmarshal(raw, &subscription.Seats)
	}
	subscription.RenewsAt = firstTime(fields, []string{"renews_at", "renewal_date"})
	subscription.ExpiresAt = firstTime(fields, []string{"expires_at", "expiry_date"})

	return subscription, nil
}
