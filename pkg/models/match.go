package models

import (
	"time"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
)

// Match statuses. The engine only ever writes suggested; the participant
// portal advances a match forward from there.
const (
	MatchStatusSuggested  = "suggested"
	MatchStatusViewed     = "viewed"
	MatchStatusInterested = "interested"
)

// matchStatusRank orders the participant-driven lifecycle. Transitions only
// move forward; there is no path back to suggested.
var matchStatusRank = map[string]int{
	MatchStatusSuggested:  0,
	MatchStatusViewed:     1,
	MatchStatusInterested: 2,
}

// ValidMatchStatusTransition reports whether a participant may move a match
// from one status to another.
func ValidMatchStatusTransition(from, to string) bool {
	fromRank, ok := matchStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := matchStatusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// MatchReason explains one scoring factor's contribution to a match.
type MatchReason struct {
	Reason  string `json:"reason"`
	Score   int    `json:"score"`
	Details string `json:"details,omitempty"`
}

// Match is the computed relationship between one participant and one
// property. At most one row exists per (property_id, participant_id).
type Match struct {
	ID            string                        `json:"id" db:"id"`
	ParticipantID string                        `json:"participant_id" db:"participant_id"`
	PropertyID    string                        `json:"property_id" db:"property_id"`
	MatchScore    int                           `json:"match_score" db:"match_score"`
	MatchReasons  database.JSONB[[]MatchReason] `json:"match_reasons" db:"match_reasons"`
	Status        string                        `json:"status" db:"status"`
	CreatedAt     time.Time                     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at" db:"updated_at"`
}

// UpdateMatchStatusRequest advances a match's lifecycle status.
type UpdateMatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=viewed interested"`
}

// CalculateMatchesRequest triggers a match run. At most one of the two ids
// may be set; neither selects a full batch run.
type CalculateMatchesRequest struct {
	ParticipantID *string `json:"participant_id,omitempty" validate:"omitempty,uuid4"`
	PropertyID    *string `json:"property_id,omitempty" validate:"omitempty,uuid4"`
}

// MatchRunSummary reports the outcome of a match run.
type MatchRunSummary struct {
	Success           bool `json:"success"`
	MatchesCalculated int  `json:"matches_calculated"`
	ExcellentMatches  int  `json:"excellent_matches"`
	GoodMatches       int  `json:"good_matches"`
}
