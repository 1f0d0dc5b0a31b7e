package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/auth"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
)

// RegisterAdmin registers the user-management routes under /admin. All of
// them require a valid token with the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, tokens middleware.TokenVerifier, limit echo.MiddlewareFunc) {
	g := e.Group("/admin", chain(
		middleware.JWTAuth(tokens),
		limit,
		middleware.RequirePolicy(auth.PolicyAdminOnly),
	)...)
	g.GET("/users", a.ListUsers)
	g.POST("/create-admin", a.CreateAdmin)
}
