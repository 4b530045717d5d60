package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidMatchStatusTransition(t *testing.T) {
	t.Run("lifecycle moves forward", func(t *testing.T) {
		assert.True(t, ValidMatchStatusTransition(MatchStatusSuggested, MatchStatusViewed))
		assert.True(t, ValidMatchStatusTransition(MatchStatusSuggested, MatchStatusInterested))
		assert.True(t, ValidMatchStatusTransition(MatchStatusViewed, MatchStatusInterested))
	})

	t.Run("lifecycle never moves backward", func(t *testing.T) {
		assert.False(t, ValidMatchStatusTransition(MatchStatusViewed, MatchStatusSuggested))
		assert.False(t, ValidMatchStatusTransition(MatchStatusInterested, MatchStatusViewed))
		assert.False(t, ValidMatchStatusTransition(MatchStatusInterested, MatchStatusSuggested))
	})

	t.Run("no self transitions", func(t *testing.T) {
		assert.False(t, ValidMatchStatusTransition(MatchStatusViewed, MatchStatusViewed))
	})

	t.Run("unknown statuses are rejected", func(t *testing.T) {
		assert.False(t, ValidMatchStatusTransition("rejected", MatchStatusViewed))
		assert.False(t, ValidMatchStatusTransition(MatchStatusSuggested, "archived"))
	})
}

func TestParticipantMatchable(t *testing.T) {
	p := &Participant{Status: ParticipantStatusSearching}
	assert.True(t, p.Matchable())

	p.Status = ParticipantStatusActive
	assert.True(t, p.Matchable())

	p.Status = ParticipantStatusMovedIn
	assert.False(t, p.Matchable())

	p.Status = ParticipantStatusInactive
	assert.False(t, p.Matchable())
}

func TestPropertyMatchable(t *testing.T) {
	p := &Property{Status: PropertyStatusAvailable, VisibleOnParticipantSite: true}
	assert.True(t, p.Matchable())

	p.VisibleOnParticipantSite = false
	assert.False(t, p.Matchable())

	p.VisibleOnParticipantSite = true
	p.Status = PropertyStatusLeased
	assert.False(t, p.Matchable())
}
