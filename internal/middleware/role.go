package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/auth"
)

// RequirePolicy returns a middleware that enforces p against the identity
// stored by JWTAuth. A missing identity is 401; a role that does not
// satisfy p is 403.
func RequirePolicy(p auth.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return unauthorized(c, "authentication required")
			}
			if !id.Role.Satisfies(p) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden: " + p.String() + " access required"})
			}
			return next(c)
		}
	}
}
