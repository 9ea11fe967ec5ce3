package models

import "time"

// Subscription is the normalized billing state of the teacher's
// organization as reported by the upstream billing endpoint.
type Subscription struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	Seats     int        `json:"seats"`
	RenewsAt  *time.Time `json:"renews_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsActive reports whether the subscription currently grants access.
func (s Subscription) IsActive() bool {
	return s.Status == "active" || s.Status == "trialing"
}
