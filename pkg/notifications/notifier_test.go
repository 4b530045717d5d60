package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
)

type fakeActivityStore struct {
	entries []*models.ActivityEntry
	err     error
}

func (f *fakeActivityStore) Append(ctx context.Context, entry *models.ActivityEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func excellentMatch(propertyID string, score int) matching.ExcellentMatch {
	return matching.ExcellentMatch{
		Property: models.Property{ID: propertyID, Address: "1 Pitt St, Sydney NSW 2000"},
		Match: &models.Match{
			PropertyID: propertyID,
			MatchScore: score,
			MatchReasons: database.JSONB[[]models.MatchReason]{Data: []models.MatchReason{
				{Reason: "Preferred location", Score: 30},
			}},
		},
	}
}

func TestService_NotifyExcellentMatches(t *testing.T) {
	ctx := context.Background()
	participant := models.Participant{ID: "p1", Name: "Sam", Email: "sam@example.com"}

	t.Run("records one activity entry covering all matches", func(t *testing.T) {
		activity := &fakeActivityStore{}
		svc := NewService(testLogger(), nil, activity)

		err := svc.NotifyExcellentMatches(ctx, participant, []matching.ExcellentMatch{
			excellentMatch("h1", 85),
			excellentMatch("h2", 92),
		})
		require.NoError(t, err)

		require.Len(t, activity.entries, 1)
		entry := activity.entries[0]
		assert.Equal(t, "p1", entry.ParticipantID)
		assert.Equal(t, models.ActivityActionExcellentMatches, entry.Action)

		details := entry.Details.GetValue()
		assert.Equal(t, 2, details["match_count"])
		assert.Equal(t, 92, details["top_score"])
		assert.Equal(t, []string{"h1", "h2"}, details["property_ids"])
	})

	t.Run("no matches means no entries", func(t *testing.T) {
		activity := &fakeActivityStore{}
		svc := NewService(testLogger(), nil, activity)

		err := svc.NotifyExcellentMatches(ctx, participant, nil)
		require.NoError(t, err)
		assert.Empty(t, activity.entries)
	})

	t.Run("activity failure is swallowed", func(t *testing.T) {
		activity := &fakeActivityStore{err: errors.New("db down")}
		svc := NewService(testLogger(), nil, activity)

		err := svc.NotifyExcellentMatches(ctx, participant, []matching.ExcellentMatch{
			excellentMatch("h1", 85),
		})
		assert.NoError(t, err)
	})
}
