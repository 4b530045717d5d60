package participant

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	activityrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/activity"
	matchrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/match"
	participantrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/participant"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

var validate = validator.New()

// Register registers participant routes
func Register(g *echo.Group) {
	g.GET("/:id", Get)
	g.GET("/:id/matches", ListMatches)
	g.GET("/:id/activity", ListActivity)
	g.PUT("/:id/preferences", UpdatePreferences)
}

// Get returns a single participant by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "participant_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*participantrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// MatchListResponse is the participant-facing match list
type MatchListResponse struct {
	Matches    []models.Match `json:"matches"`
	TotalCount int            `json:"total_count"`
}

// ListMatches returns a participant's matches, best first. The min_score
// query parameter filters out weaker matches.
func ListMatches(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "participant_handler.ListMatches")
	defer span.End()

	id := c.Param("id")

	minScore := 0
	if raw := c.QueryParam("min_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 100 {
			return httperror.NewHTTPError(http.StatusBadRequest, "min_score must be an integer between 0 and 100")
		}
		minScore = parsed
	}

	ctx, participants, err := ectoinject.GetContext[*participantrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	// 404 on unknown participants rather than an empty list
	if _, err := participants.Get(ctx, id); err != nil {
		return err
	}

	ctx, matches, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := matches.ListByParticipant(ctx, id, minScore)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MatchListResponse{
		Matches:    items,
		TotalCount: len(items),
	})
}

// ListActivity returns a participant's recent activity feed, newest first
func ListActivity(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "participant_handler.ListActivity")
	defer span.End()

	id := c.Param("id")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, repo, err := ectoinject.GetContext[*activityrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	entries, err := repo.ListByParticipant(ctx, id, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"entries":     entries,
		"total_count": len(entries),
	})
}

// PreferencesResponse returns the updated participant along with the match
// run their new preferences triggered
type PreferencesResponse struct {
	Participant *models.Participant     `json:"participant"`
	MatchRun    *models.MatchRunSummary `json:"match_run"`
}

// UpdatePreferences replaces a participant's housing preferences and
// recalculates their matches
func UpdatePreferences(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "participant_handler.UpdatePreferences")
	defer span.End()

	id := c.Param("id")

	var req models.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*participantrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.UpdatePreferences(ctx, id, &req)
	if err != nil {
		return err
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match engine")
	}

	summary, err := engine.RunForParticipant(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PreferencesResponse{
		Participant: result,
		MatchRun:    summary,
	})
}
