// Package catalog implements the movie catalog: the query engine that turns
// filter, sort and page parameters into a deterministic result set, and the
// mutation policy that validates and applies writes.
package catalog

import (
	"context"
	"errors"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// ErrMovieNotFound indicates that a movie was not located in the store.
var ErrMovieNotFound = errors.New("movie not found")

// ErrMovieExists indicates that another movie already has the same title
// and year.
var ErrMovieExists = errors.New("movie with the same title and year already exists")

// Store persists movies. Implementations run Create and Replace inside a
// single transaction that also enforces (title, year) uniqueness.
type Store interface {
	// List returns the movies selected by q.
	List(ctx context.Context, q Query) ([]model.Movie, error)
	// Count returns the total number of movies.
	Count(ctx context.Context) (int64, error)
	// GetByID returns ErrMovieNotFound when id is unknown.
	GetByID(ctx context.Context, id int64) (model.Movie, error)
	// Create assigns m.ID on success and returns ErrMovieExists on a
	// duplicate (title, year).
	Create(ctx context.Context, m *model.Movie) error
	// Replace overwrites every column of the row with m.ID. It returns
	// ErrMovieNotFound or ErrMovieExists without modifying anything.
	Replace(ctx context.Context, m model.Movie) error
	// Delete returns ErrMovieNotFound when id is unknown.
	Delete(ctx context.Context, id int64) error
}

// Publisher receives notifications about successful catalog mutations.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, m model.Movie) error
}

// Routing keys used for catalog notifications.
const (
	EventMovieCreated = "movie.created"
	EventMovieUpdated = "movie.updated"
	EventMovieDeleted = "movie.deleted"
)
