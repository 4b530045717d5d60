// Package scoring implements the property/participant compatibility rubric.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
)

// Maximum points per factor. The factor maximums sum to 100 and the total
// is capped there.
const (
	MaxScore          = 100
	LocationPoints    = 30
	BudgetPointsFull  = 25
	BudgetPointsGood  = 20
	BudgetPointsTight = 10
	BedroomPoints     = 10
	BathroomPoints    = 10
	SDAExactPoints    = 15
	SDAPartialPoints  = 5
	AccessibilityMax  = 10
	AccessibilityFlat = 5
)

// Reason labels surfaced to the participant portal.
const (
	ReasonLocation      = "Preferred location"
	ReasonBudget        = "Within budget"
	ReasonBedrooms      = "Enough bedrooms"
	ReasonBathrooms     = "Enough bathrooms"
	ReasonSDACategory   = "SDA category"
	ReasonAccessibility = "Accessibility features"
)

// mobilityKeywords maps each mobility requirement flag to the keywords
// looked up in the property's free-text feature labels.
var mobilityKeywords = map[string][]string{
	models.MobilityWheelchair:         {"wheelchair"},
	models.MobilityStepFree:           {"step free", "step-free"},
	models.MobilityAccessibleBathroom: {"accessible bathroom"},
	models.MobilityWideDoorways:       {"wide door"},
}

// mobilityOrder fixes iteration order so details strings are deterministic.
var mobilityOrder = []string{
	models.MobilityWheelchair,
	models.MobilityStepFree,
	models.MobilityAccessibleBathroom,
	models.MobilityWideDoorways,
}

// Scorer computes compatibility scores between participants and properties.
type Scorer struct{}

// NewScorer creates a new Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the 0-100 compatibility score for a participant/property
// pair along with the ranked reasons. It is pure and deterministic: the same
// records always produce the same score and the same reason order.
func (s *Scorer) Score(participant *models.Participant, property *models.Property) (int, []models.MatchReason) {
	reasons := make([]models.MatchReason, 0, 6)

	add := func(reason string, score int, details string) {
		// Only factors that contributed points are surfaced.
		if score > 0 {
			reasons = append(reasons, models.MatchReason{Reason: reason, Score: score, Details: details})
		}
	}

	locScore, locDetails := s.LocationScore(participant, property)
	add(ReasonLocation, locScore, locDetails)

	budgetScore, budgetDetails := s.BudgetScore(participant, property)
	add(ReasonBudget, budgetScore, budgetDetails)

	bedScore := s.BedroomScore(participant, property)
	add(ReasonBedrooms, bedScore, fmt.Sprintf("%d bedrooms available", property.Bedrooms))

	bathScore := s.BathroomScore(participant, property)
	add(ReasonBathrooms, bathScore, fmt.Sprintf("%d bathrooms available", property.Bathrooms))

	sdaScore, sdaDetails := s.SDACategoryScore(participant, property)
	add(ReasonSDACategory, sdaScore, sdaDetails)

	accessScore, accessDetails := s.AccessibilityScore(participant, property)
	add(ReasonAccessibility, accessScore, accessDetails)

	total := locScore + budgetScore + bedScore + bathScore + sdaScore + accessScore
	if total > MaxScore {
		total = MaxScore
	}

	// Rank reasons by contribution; ties keep factor declaration order.
	sort.SliceStable(reasons, func(i, j int) bool {
		return reasons[i].Score > reasons[j].Score
	})

	return total, reasons
}

// LocationScore awards full points when any preferred location appears as a
// case-insensitive substring of the property address. No partial credit.
func (s *Scorer) LocationScore(participant *models.Participant, property *models.Property) (int, string) {
	address := strings.ToLower(property.Address)
	for _, loc := range participant.PreferredLocations.GetValue() {
		trimmed := strings.TrimSpace(loc)
		if trimmed == "" {
			continue
		}
		if strings.Contains(address, strings.ToLower(trimmed)) {
			return LocationPoints, fmt.Sprintf("Property is in %s", trimmed)
		}
	}
	return 0, ""
}

// BudgetScore compares weekly rent against the participant's maximum weekly
// budget. Both values must be present; affordability is tiered at 80%, 100%
// and 110% of budget.
func (s *Scorer) BudgetScore(participant *models.Participant, property *models.Property) (int, string) {
	if participant.MaxWeeklyBudget == nil || property.WeeklyRent == nil {
		return 0, ""
	}

	budget := *participant.MaxWeeklyBudget
	rent := *property.WeeklyRent
	if budget <= 0 {
		return 0, ""
	}

	details := fmt.Sprintf("Rent $%.0f/week against budget $%.0f/week", rent, budget)
	switch {
	case rent <= budget*0.8:
		return BudgetPointsFull, details
	case rent <= budget:
		return BudgetPointsGood, details
	case rent <= budget*1.1:
		return BudgetPointsTight, details
	default:
		return 0, ""
	}
}

// BedroomScore awards full points when the property meets the participant's
// minimum bedroom count (default 1 when unset).
func (s *Scorer) BedroomScore(participant *models.Participant, property *models.Property) int {
	min := participant.MinBedrooms
	if min < 1 {
		min = 1
	}
	if property.Bedrooms >= min {
		return BedroomPoints
	}
	return 0
}

// BathroomScore awards full points when the property meets the participant's
// minimum bathroom count (default 1 when unset).
func (s *Scorer) BathroomScore(participant *models.Participant, property *models.Property) int {
	min := participant.MinBathrooms
	if min < 1 {
		min = 1
	}
	if property.Bathrooms >= min {
		return BathroomPoints
	}
	return 0
}

// SDACategoryScore awards full points on a case-insensitive category match
// and partial points on a mismatch. Any pairing of specified categories is
// treated as somewhat compatible; an unset category on either side scores 0.
func (s *Scorer) SDACategoryScore(participant *models.Participant, property *models.Property) (int, string) {
	if participant.SDACategory == nil || property.SDACategory == nil {
		return 0, ""
	}
	want := strings.TrimSpace(*participant.SDACategory)
	have := strings.TrimSpace(*property.SDACategory)
	if want == "" || have == "" {
		return 0, ""
	}
	if strings.EqualFold(want, have) {
		return SDAExactPoints, fmt.Sprintf("Property is %s certified", have)
	}
	return SDAPartialPoints, fmt.Sprintf("Property is %s, participant needs %s", have, want)
}

// AccessibilityScore awards points proportional to how many of the
// participant's declared mobility requirements are met by the property's
// feature labels. A participant with no declared requirements gets a flat
// partial score.
func (s *Scorer) AccessibilityScore(participant *models.Participant, property *models.Property) (int, string) {
	requirements := participant.MobilityRequirements.GetValue()

	declared := 0
	matched := 0
	features := make([]string, 0, len(property.Features.GetValue()))
	for _, f := range property.Features.GetValue() {
		features = append(features, strings.ToLower(f))
	}

	for _, flag := range mobilityOrder {
		if !requirements[flag] {
			continue
		}
		declared++
		if featuresContainAny(features, mobilityKeywords[flag]) {
			matched++
		}
	}

	if declared == 0 {
		return AccessibilityFlat, "No specific accessibility requirements"
	}

	score := int(math.Round(float64(AccessibilityMax) * float64(matched) / float64(declared)))
	return score, fmt.Sprintf("%d of %d accessibility requirements met", matched, declared)
}

func featuresContainAny(features []string, keywords []string) bool {
	for _, feature := range features {
		for _, keyword := range keywords {
			if strings.Contains(feature, keyword) {
				return true
			}
		}
	}
	return false
}
