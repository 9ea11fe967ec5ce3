package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures every mutation attempted through this service
// (assign, unassign, reorder, review) together with its outcome, so a
// failed optimistic update leaves an auditable trace even after rollback.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   *uint             `json:"entity_id"`
	Outcome    string            `gorm:"size:32;not null" json:"outcome"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}

const (
	// ActivityOutcomeApplied marks a mutation the upstream confirmed.
	ActivityOutcomeApplied = "applied"
	// ActivityOutcomeRolledBack marks a mutation reverted after an upstream failure.
	ActivityOutcomeRolledBack = "rolled_back"
	// ActivityOutcomeBlocked marks a mutation rejected before any upstream call.
	ActivityOutcomeBlocked = "blocked"
)
