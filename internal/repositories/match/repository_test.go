package match

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
)

func TestBuildUpsertBatch(t *testing.T) {
	matches := []*models.Match{
		{ParticipantID: "p1", PropertyID: "h1", MatchScore: 85},
		{ParticipantID: "p2", PropertyID: "h1", MatchScore: 45},
	}

	query, args := buildUpsertBatch(matches)

	t.Run("conflicts key on the property participant pair", func(t *testing.T) {
		assert.Contains(t, query, "ON CONFLICT (property_id, participant_id) DO UPDATE")
	})

	t.Run("recalculation preserves existing row status", func(t *testing.T) {
		assert.Contains(t, query, "match_score = EXCLUDED.match_score")
		assert.Contains(t, query, "match_reasons = EXCLUDED.match_reasons")
		assert.Contains(t, query, "updated_at = EXCLUDED.updated_at")

		_, updateClause, found := strings.Cut(query, "DO UPDATE SET")
		require.True(t, found)
		assert.NotContains(t, updateClause, "status")
		assert.NotContains(t, updateClause, "created_at")
	})

	t.Run("new rows start as suggested with fresh ids", func(t *testing.T) {
		for _, m := range matches {
			assert.Equal(t, models.MatchStatusSuggested, m.Status)
			assert.NotEmpty(t, m.ID)
		}
		assert.NotEqual(t, matches[0].ID, matches[1].ID)
	})

	t.Run("one value tuple per match", func(t *testing.T) {
		assert.Len(t, args, len(columns)*len(matches))
	})
}
