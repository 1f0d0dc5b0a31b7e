package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/auth"
)

// TokenVerifier turns a raw bearer token into an identity.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the caller's identity on the context. Requests without a valid
// token are answered with 401 and a WWW-Authenticate challenge.
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return unauthorized(c, "missing bearer token")
			}
			id, err := tokens.Verify(raw)
			if err != nil {
				return unauthorized(c, apperr.Message(err))
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
