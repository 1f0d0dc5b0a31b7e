// Package router wires handlers and middleware into an Echo instance.
package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/movie-catalog/internal/handler"
	"github.com/iliyamo/movie-catalog/internal/middleware"
)

// Deps carries everything the routes need.
type Deps struct {
	Auth   *handler.AuthHandler
	Movies *handler.MovieHandler
	Health *handler.HealthHandler
	Tokens middleware.TokenVerifier
	Logger *slog.Logger

	// RateLimit guards the /auth, /admin and /movies groups when set. On
	// protected groups it runs after JWTAuth so keys see the caller.
	RateLimit echo.MiddlewareFunc
	// Metrics records request counters when set; Gatherer backs /metrics.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
}

// New returns an Echo instance with global middleware and every route
// registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	if d.Logger != nil {
		e.Use(middleware.RequestLogger(d.Logger))
	}

	RegisterRoutes(e, d.Health, d.Gatherer)
	RegisterAuth(e, d.Auth, d.RateLimit)
	RegisterAdmin(e, d.Auth, d.Tokens, d.RateLimit)
	RegisterMovies(e, d.Movies, d.Tokens, d.RateLimit)
	e.RouteNotFound("/*", notFound)
	return e
}

// RegisterRoutes registers the routes that do not require authentication:
// the banner, the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler, g prometheus.Gatherer) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	if g != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the unauthenticated account routes under /auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/auth", chain(limit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// chain drops nil entries so optional middleware can be passed as is.
func chain(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// notFound is the JSON body used for unknown routes.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
}
