// Package handler contains the HTTP handlers for the auth, admin and movie
// routes. Handlers bind and translate; the rules live in the auth and
// catalog services.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/apperr"
)

// requestTimeout bounds every store call made on behalf of a request.
const requestTimeout = 5 * time.Second

// fail writes err as {"error": message} with the status its code maps to.
// Internal errors are logged and their detail withheld.
func fail(c echo.Context, logger *slog.Logger, err error) error {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		apperr.LogError(logger, "request failed", err)
	}
	return c.JSON(status, echo.Map{"error": apperr.Message(err)})
}

// bind decodes the request body into dst.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid body")
	}
	return nil
}

// movieID parses the :id path parameter, which must be a positive integer.
func movieID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("movie id must be a positive integer")
	}
	return id, nil
}
