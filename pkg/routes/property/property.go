package property

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	propertyrepo "github.com/Tony6776/sda-property-admin-sub001/internal/repositories/property"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/matching"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/models"
	"github.com/Tony6776/sda-property-admin-sub001/pkg/tracing"
)

var validate = validator.New()

// Register registers property routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id", Upsert)
}

// Get returns a single property by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*propertyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// PropertyResponse returns the saved property along with the match run it
// triggered
type PropertyResponse struct {
	Property *models.Property        `json:"property"`
	MatchRun *models.MatchRunSummary `json:"match_run"`
}

// Create creates a new property and matches participants against it
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Create")
	defer span.End()

	return save(c, ctx, "")
}

// Upsert creates or updates a property with a known ID and matches
// participants against it
func Upsert(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "property_handler.Upsert")
	defer span.End()

	return save(c, ctx, c.Param("id"))
}

func save(c echo.Context, ctx context.Context, id string) error {
	var req models.UpsertPropertyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*propertyrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Upsert(ctx, id, &req)
	if err != nil {
		return err
	}

	ctx, engine, err := ectoinject.GetContext[*matching.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match engine")
	}

	summary, err := engine.RunForProperty(ctx, result.ID)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}

	return c.JSON(status, PropertyResponse{
		Property: result,
		MatchRun: summary,
	})
}
