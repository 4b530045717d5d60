package match

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Tony6776/sda-property-admin-sub001/pkg/database"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

var columns = []string{
	"id", "participant_id", "property_id", "match_score", "match_reasons",
	"status", "created_at", "updated_at",
}

// Repository handles match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// buildUpsertBatch builds the batch insert for a match run. On conflict the
// score, reasons and updated_at are refreshed but the row's status is left
// untouched so participant progress survives recalculation.
func buildUpsertBatch(matches []*models.Match) (string, []any) {
	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("matches")
	sb.Cols(columns...)

	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.Status == "" {
			m.Status = models.MatchStatusSuggested
		}
		m.CreatedAt = now
		m.UpdatedAt = now
		sb.Values(m.ID, m.ParticipantID, m.PropertyID, m.MatchScore, m.MatchReasons, m.Status, m.CreatedAt, m.UpdatedAt)
	}

	query, args := sb.Build()
	query += " ON CONFLICT (property_id, participant_id) DO UPDATE SET match_score = EXCLUDED.match_score, match_reasons = EXCLUDED.match_reasons, updated_at = EXCLUDED.updated_at"

	return query, args
}

// UpsertBatch writes a match run's results in a single statement
func (r *Repository) UpsertBatch(ctx context.Context, matches []*models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpsertBatch")
	defer span.End()

	if len(matches) == 0 {
		return nil
	}

	query, args := buildUpsertBatch(matches)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert matches batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save matches")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(matches)}).Debug("Upserted matches batch")
	return nil
}

// Get retrieves a match by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var match models.Match
	if err := r.db.GetContext(ctx, &match, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}

	return &match, nil
}

// ListByParticipant retrieves a participant's matches at or above a minimum
// score, best first
func (r *Repository) ListByParticipant(ctx context.Context, participantID string, minScore int) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByParticipant")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("matches")
	sb.Where(sb.Equal("participant_id", participantID))
	if minScore > 0 {
		sb.Where(sb.GreaterEqualThan("match_score", minScore))
	}
	sb.OrderBy("match_score DESC", "created_at DESC")

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// UpdateStatus writes a new lifecycle status on a match
func (r *Repository) UpdateStatus(ctx context.Context, id string, status string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateStatus")
	defer span.End()

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("matches")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": id}).Error("Failed to update match status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match %s not found", id))
	}

	return r.Get(ctx, id)
}
