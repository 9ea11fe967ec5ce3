package dto

import "time"

// Event types pushed to connected teacher sessions so open pages can
// invalidate their local state.
const (
	EventSubscriptionChanged = "subscription.changed"
	EventProgressInvalidated = "progress.invalidated"
	EventContentReordered    = "content.reordered"
)

// Event is a typed invalidation signal with an optional payload.
type Event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	SentAt  time.Time              `json:"sent_at"`
}
