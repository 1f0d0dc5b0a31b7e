package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/auth"
)

// identityKey holds the auth.Identity set by JWTAuth.
const identityKey = "identity"

// SetIdentity stores a verified identity on the request context.
func SetIdentity(c echo.Context, id auth.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the identity stored by JWTAuth.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}

// userID returns the authenticated email, or "anon" before authentication.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.Email != "" {
		return id.Email
	}
	return "anon"
}
