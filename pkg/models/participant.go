package models

import (
	"time"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
)

// Participant statuses. Participants who have moved in or gone inactive are
// excluded from matching.
const (
	ParticipantStatusActive    = "active"
	ParticipantStatusSearching = "searching"
	ParticipantStatusMovedIn   = "moved-in"
	ParticipantStatusInactive  = "inactive"
)

// Mobility requirement flags a participant can declare. Each maps to a
// keyword looked up in the property feature labels.
const (
	MobilityWheelchair         = "wheelchair"
	MobilityStepFree           = "step_free"
	MobilityAccessibleBathroom = "accessible_bathroom"
	MobilityWideDoorways       = "wide_doorways"
)

// Participant is a person seeking SDA housing.
type Participant struct {
	ID                   string                          `json:"id" db:"id"`
	Name                 string                          `json:"name" db:"name"`
	Email                string                          `json:"email" db:"email"`
	Status               string                          `json:"status" db:"status"`
	PreferredLocations   database.JSONB[[]string]        `json:"preferred_locations" db:"preferred_locations"`
	MaxWeeklyBudget      *float64                        `json:"max_weekly_budget,omitempty" db:"max_weekly_budget"`
	MinBedrooms          int                             `json:"min_bedrooms" db:"min_bedrooms"`
	MinBathrooms         int                             `json:"min_bathrooms" db:"min_bathrooms"`
	SDACategory          *string                         `json:"sda_category,omitempty" db:"sda_category"`
	MobilityRequirements database.JSONB[map[string]bool] `json:"mobility_requirements" db:"mobility_requirements"`
	CreatedAt            time.Time                       `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time                       `json:"updated_at" db:"updated_at"`
}

// Matchable reports whether the participant should be considered for new
// matches at all.
func (p *Participant) Matchable() bool {
	return p.Status != ParticipantStatusMovedIn && p.Status != ParticipantStatusInactive
}

// UpdatePreferencesRequest is the request to replace a participant's housing
// preferences. Saving preferences re-triggers participant matching.
type UpdatePreferencesRequest struct {
	PreferredLocations   []string        `json:"preferred_locations"`
	MaxWeeklyBudget      *float64        `json:"max_weekly_budget,omitempty" validate:"omitempty,gt=0"`
	MinBedrooms          int             `json:"min_bedrooms" validate:"omitempty,min=1"`
	MinBathrooms         int             `json:"min_bathrooms" validate:"omitempty,min=1"`
	SDACategory          *string         `json:"sda_category,omitempty"`
	MobilityRequirements map[string]bool `json:"mobility_requirements,omitempty"`
}
