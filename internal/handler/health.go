package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Counter returns the number of movies in the catalog.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves the banner and health endpoints.
type HealthHandler struct {
	DB      Pinger
	Movies  Counter
	Version string
	now     func() time.Time
}

func NewHealthHandler(db Pinger, movies Counter, version string) *HealthHandler {
	return &HealthHandler{DB: db, Movies: movies, Version: version, now: time.Now}
}

// Root: GET /
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Movies API is running"})
}

// Health: GET /health. It answers 503 when the database cannot be reached.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := echo.Map{
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   h.Version,
	}
	if err := h.DB.PingContext(ctx); err != nil {
		resp["status"] = "unhealthy"
		resp["database"] = "disconnected"
		resp["movie_count"] = 0
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	n, err := h.Movies.Count(ctx)
	if err != nil {
		resp["status"] = "unhealthy"
		resp["database"] = "connected"
		resp["movie_count"] = 0
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	resp["status"] = "healthy"
	resp["database"] = "connected"
	resp["movie_count"] = n
	return c.JSON(http.StatusOK, resp)
}
