package property

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
	"id", "address", "weekly_rent", "bedrooms", "bathrooms", "sda_category",
	"features", "status", "visible_on_participant_site", "created_at", "updated_at",
}

// Repository handles property persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new property repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a property by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("properties")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var property models.Property
	if err := r.db.GetContext(ctx, &property, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("property %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get property")
	}

	return &property, nil
}

// ListMatchable retrieves all properties eligible for participant-facing
// matching: available and visible on the participant site.
func (r *Repository) ListMatchable(ctx context.Context) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.ListMatchable")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("properties")
	sb.Where(
		sb.Equal("status", models.PropertyStatusAvailable),
		sb.Equal("visible_on_participant_site", true),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matchable properties")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list properties")
	}

	return properties, nil
}

// Upsert creates a property or replaces an existing one's details
func (r *Repository) Upsert(ctx context.Context, id string, req *models.UpsertPropertyRequest) (*models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "property.Repository.Upsert")
	defer span.End()

	if id == "" {
		id = uuid.New().String()
	}
	status := req.Status
	if status == "" {
		status = models.PropertyStatusAvailable
	}
	now := time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("properties")
	sb.Cols(columns...)
	sb.Values(
		id, req.Address, req.WeeklyRent, req.Bedrooms, req.Bathrooms, req.SDACategory,
		database.JSONB[[]string]{Data: req.Features}, status, req.VisibleOnParticipantSite, now, now,
	)

	query, args := sb.Build()
	query += ` ON CONFLICT (id) DO UPDATE SET
		address = EXCLUDED.address,
		weekly_rent = EXCLUDED.weekly_rent,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		sda_category = EXCLUDED.sda_category,
		features = EXCLUDED.features,
		status = EXCLUDED.status,
		visible_on_participant_site = EXCLUDED.visible_on_participant_site,
		updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"property_id": id}).Error("Failed to upsert property")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to save property")
	}

	return r.Get(ctx, id)
}
