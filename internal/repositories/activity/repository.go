package activity

import (
	"context"
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

// Repository handles the append-only participant activity log
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new activity repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append writes a single activity entry
func (r *Repository) Append(ctx context.Context, entry *models.ActivityEntry) error {
	ctx, span := tracing.StartSpan(ctx, "activity.Repository.Append")
	defer span.End()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("activity_log")
	sb.Cols("id", "participant_id", "action", "details", "created_at")
	sb.Values(entry.ID, entry.ParticipantID, entry.Action, entry.Details, entry.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"participant_id": entry.ParticipantID, "action": entry.Action}).Error("Failed to append activity entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to record activity")
	}

	return nil
}

// ListByParticipant retrieves a participant's recent activity, newest first
func (r *Repository) ListByParticipant(ctx context.Context, participantID string, limit int) ([]models.ActivityEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "activity.Repository.ListByParticipant")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "participant_id", "action", "details", "created_at")
	sb.From("activity_log")
	sb.Where(sb.Equal("participant_id", participantID))
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.ActivityEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list activity entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list activity")
	}

	return entries, nil
}
