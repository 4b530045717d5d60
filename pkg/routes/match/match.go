package match

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	matchrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/match"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

var validate = validator.New()

// Register registers match routes
func Register(g *echo.Group) {
	g.POST("/calculate", Calculate)
	g.GET("/:id", Get)
	g.POST("/:id/status", UpdateStatus)
}

// Calculate triggers a match run. The request body selects the mode: a
// participant id, a property id, or neither for a full batch run.
func Calculate(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "match_handler.Calculate")
	defer span.End()

	var req models.CalculateMatchesRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match engine")
	}

	summary, err := engine.Run(ctx, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

// Get returns a single match by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "match_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateStatus advances a match's lifecycle status. Transitions only move
// forward: suggested to viewed to interested.
func UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "match_handler.UpdateStatus")
	defer span.End()

	id := c.Param("id")

	var req models.UpdateMatchStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*matchrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	existing, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if !models.ValidMatchStatusTransition(existing.Status, req.Status) {
		return httperror.NewHTTPErrorf(http.StatusConflict, "cannot move match from %s to %s", existing.Status, req.Status)
	}

	result, err := repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
