package models

import (
	"time"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
)

// Property statuses. Only available properties are matched.
const (
	PropertyStatusAvailable   = "available"
	PropertyStatusLeased      = "leased"
	PropertyStatusMaintenance = "maintenance"
	PropertyStatusArchived    = "archived"
)

// SDA design categories as funded by the NDIA.
const (
	SDACategoryImprovedLiveability = "Improved Liveability"
	SDACategoryFullyAccessible     = "Fully Accessible"
	SDACategoryRobust              = "Robust"
	SDACategoryHighPhysicalSupport = "High Physical Support"
)

// Property is a housing unit available for lease or sale.
type Property struct {
	ID                       string                   `json:"id" db:"id"`
	Address                  string                   `json:"address" db:"address"`
	WeeklyRent               *float64                 `json:"weekly_rent,omitempty" db:"weekly_rent"`
	Bedrooms                 int                      `json:"bedrooms" db:"bedrooms"`
	Bathrooms                int                      `json:"bathrooms" db:"bathrooms"`
	SDACategory              *string                  `json:"sda_category,omitempty" db:"sda_category"`
	Features                 database.JSONB[[]string] `json:"features" db:"features"`
	Status                   string                   `json:"status" db:"status"`
	VisibleOnParticipantSite bool                     `json:"visible_on_participant_site" db:"visible_on_participant_site"`
	CreatedAt                time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time                `json:"updated_at" db:"updated_at"`
}

// Matchable reports whether the property is eligible for participant-facing
// matching.
func (p *Property) Matchable() bool {
	return p.Status == PropertyStatusAvailable && p.VisibleOnParticipantSite
}

// UpsertPropertyRequest is the admin/sync request to create or update a
// property. Saving a property re-triggers property matching.
type UpsertPropertyRequest struct {
	Address                  string   `json:"address" validate:"required"`
	WeeklyRent               *float64 `json:"weekly_rent,omitempty" validate:"omitempty,gt=0"`
	Bedrooms                 int      `json:"bedrooms" validate:"min=0"`
	Bathrooms                int      `json:"bathrooms" validate:"min=0"`
	SDACategory              *string  `json:"sda_category,omitempty"`
	Features                 []string `json:"features,omitempty"`
	Status                   string   `json:"status" validate:"omitempty,oneof=available leased maintenance archived"`
	VisibleOnParticipantSite bool     `json:"visible_on_participant_site"`
}
