package models

import (
	"time"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
)

// Activity log actions appended by the matching engine.
const (
	ActivityActionExcellentMatches = "excellent_matches_found"
)

// ActivityEntry is one append-only activity log row for a participant.
type ActivityEntry struct {
	ID            string                         `json:"id" db:"id"`
	ParticipantID string                         `json:"participant_id" db:"participant_id"`
	Action        string                         `json:"action" db:"action"`
	Details       database.JSONB[map[string]any] `json:"details" db:"details"`
	CreatedAt     time.Time                      `json:"created_at" db:"created_at"`
}
