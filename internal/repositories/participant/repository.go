package participant

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
	"id", "name", "email", "status", "preferred_locations", "max_weekly_budget",
	"min_bedrooms", "min_bathrooms", "sda_category", "mobility_requirements",
	"created_at", "updated_at",
}

// Repository handles participant persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new participant repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new participant
func (r *Repository) Create(ctx context.Context, participant *models.Participant) (*models.Participant, error) {
	ctx, span := tracing.StartSpan(ctx, "participant.Repository.Create")
	defer span.End()

	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}
	if participant.Status == "" {
		participant.Status = models.ParticipantStatusActive
	}
	participant.CreatedAt = time.Now().UTC()
	participant.UpdatedAt = participant.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("participants")
	sb.Cols(columns...)
	sb.Values(
		participant.ID, participant.Name, participant.Email, participant.Status,
		participant.PreferredLocations, participant.MaxWeeklyBudget,
		participant.MinBedrooms, participant.MinBathrooms, participant.SDACategory,
		participant.MobilityRequirements, participant.CreatedAt, participant.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"participant_id": participant.ID}).Error("Failed to create participant")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create participant")
	}

	return participant, nil
}

// Get retrieves a participant by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Participant, error) {
	ctx, span := tracing.StartSpan(ctx, "participant.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("participants")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("participant %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get participant")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get participant")
	}

	return &participant, nil
}

// ListMatchable retrieves all participants eligible for matching
func (r *Repository) ListMatchable(ctx context.Context) ([]models.Participant, error) {
	ctx, span := tracing.StartSpan(ctx, "participant.Repository.ListMatchable")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("participants")
	sb.Where(sb.NotIn("status", models.ParticipantStatusMovedIn, models.ParticipantStatusInactive))
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matchable participants")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list participants")
	}

	return participants, nil
}

// UpdatePreferences replaces a participant's housing preferences
func (r *Repository) UpdatePreferences(ctx context.Context, id string, req *models.UpdatePreferencesRequest) (*models.Participant, error) {
	ctx, span := tracing.StartSpan(ctx, "participant.Repository.UpdatePreferences")
	defer span.End()

	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("participants")
	sb.Set(
		sb.Assign("preferred_locations", database.JSONB[[]string]{Data: req.PreferredLocations}),
		sb.Assign("max_weekly_budget", req.MaxWeeklyBudget),
		sb.Assign("min_bedrooms", req.MinBedrooms),
		sb.Assign("min_bathrooms", req.MinBathrooms),
		sb.Assign("sda_category", req.SDACategory),
		sb.Assign("mobility_requirements", database.JSONB[map[string]bool]{Data: req.MobilityRequirements}),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"participant_id": id}).Error("Failed to update participant preferences")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update preferences")
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("participant %s not found", id))
	}

	return r.Get(ctx, id)
}
