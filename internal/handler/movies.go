package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/catalog"
)

// movieBody is the create and replace payload. Numbers are pointers so an
// omitted field fails instead of defaulting to zero.
type movieBody struct {
	Title          string   `json:"title"`
	Year           int      `json:"year"`
	Genre          string   `json:"genre"`
	Studio         string   `json:"studio"`
	AudienceScore  *int     `json:"audience_score" validate:"required"`
	RottenTomatoes *int     `json:"rotten_tomatoes" validate:"required"`
	Profitability  *float64 `json:"profitability" validate:"required"`
	WorldwideGross *float64 `json:"worldwide_gross" validate:"required"`
}

var bodyValidator = apperr.NewValidator()

// bindMovie decodes a movieBody and requires every numeric field.
func bindMovie(c echo.Context) (catalog.MovieInput, error) {
	var b movieBody
	if err := bind(c, &b); err != nil {
		return catalog.MovieInput{}, err
	}
	if err := bodyValidator.Struct(b); err != nil {
		return catalog.MovieInput{}, apperr.FromValidation(err)
	}
	return catalog.MovieInput{
		Title:          b.Title,
		Year:           b.Year,
		Genre:          b.Genre,
		Studio:         b.Studio,
		AudienceScore:  *b.AudienceScore,
		RottenTomatoes: *b.RottenTomatoes,
		Profitability:  *b.Profitability,
		WorldwideGross: *b.WorldwideGross,
	}, nil
}

// MovieHandler serves the /movies routes.
type MovieHandler struct {
	Catalog *catalog.Service
	Logger  *slog.Logger
}

func NewMovieHandler(svc *catalog.Service, logger *slog.Logger) *MovieHandler {
	return &MovieHandler{Catalog: svc, Logger: logger}
}

// List: GET /movies/?title=&genre=&studio=&year_min=&year_max=&min_profitability=&order_by=&page=&limit=
func (h *MovieHandler) List(c echo.Context) error {
	q, err := catalog.ParseQuery(c.QueryParams())
	if err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	movies, err := h.Catalog.List(ctx, q)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Get: GET /movies/:id
func (h *MovieHandler) Get(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create: POST /movies/
func (h *MovieHandler) Create(c echo.Context) error {
	in, err := bindMovie(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Catalog.Create(ctx, in)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Replace: PUT /movies/:id
func (h *MovieHandler) Replace(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	in, err := bindMovie(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Catalog.Replace(ctx, id, in)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Patch: PATCH /movies/:id
func (h *MovieHandler) Patch(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	var p catalog.MoviePatch
	if err := bind(c, &p); err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Catalog.Patch(ctx, id, p)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Delete: DELETE /movies/:id
func (h *MovieHandler) Delete(c echo.Context) error {
	id, err := movieID(c)
	if err != nil {
		return fail(c, h.Logger, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Catalog.Delete(ctx, id); err != nil {
		return fail(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}
