package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/auth"
	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
)

// RegisterMovies registers the catalog routes under /movies. Reads need any
// authenticated caller; writes need the user or admin role.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler, tokens middleware.TokenVerifier, limit echo.MiddlewareFunc) {
	g := e.Group("/movies", chain(middleware.JWTAuth(tokens), limit)...)

	read := middleware.RequirePolicy(auth.PolicyAuthenticated)
	write := middleware.RequirePolicy(auth.PolicyUserOrAdmin)

	// Both "/movies" and "/movies/" list and create.
	g.GET("", m.List, read)
	g.GET("/", m.List, read)
	g.GET("/:id", m.Get, read)

	g.POST("", m.Create, write)
	g.POST("/", m.Create, write)
	g.PUT("/:id", m.Replace, write)
	g.PATCH("/:id", m.Patch, write)
	g.DELETE("/:id", m.Delete, write)
}
