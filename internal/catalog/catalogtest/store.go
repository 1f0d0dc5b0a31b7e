// Package catalogtest provides an in-memory catalog.Store for tests.
package catalogtest

import (
	"context"
	"strings"
	"sync"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// Store keeps movies in a map guarded by a mutex. Queries are evaluated
// with catalog.Query.Apply, the same predicates the SQL store binds.
type Store struct {
	mu     sync.Mutex
	movies map[int64]model.Movie
	nextID int64

	// Err, when set, is returned by every method.
	Err error
}

// NewStore returns a Store seeded with movies. Seeded ids are kept when
// non-zero and assigned otherwise.
func NewStore(movies ...model.Movie) *Store {
	s := &Store{movies: make(map[int64]model.Movie)}
	for _, m := range movies {
		if m.ID == 0 {
			s.nextID++
			m.ID = s.nextID
		} else if m.ID > s.nextID {
			s.nextID = m.ID
		}
		s.movies[m.ID] = m
	}
	return s
}

func (s *Store) List(_ context.Context, q catalog.Query) ([]model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	all := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		all = append(all, m)
	}
	return q.Apply(all), nil
}

func (s *Store) Count(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return int64(len(s.movies)), nil
}

func (s *Store) GetByID(_ context.Context, id int64) (model.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.Movie{}, s.Err
	}
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, catalog.ErrMovieNotFound
	}
	return m, nil
}

func (s *Store) Create(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.taken(m.Title, m.Year, 0) {
		return catalog.ErrMovieExists
	}
	s.nextID++
	m.ID = s.nextID
	s.movies[m.ID] = *m
	return nil
}

func (s *Store) Replace(_ context.Context, m model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.movies[m.ID]; !ok {
		return catalog.ErrMovieNotFound
	}
	if s.taken(m.Title, m.Year, m.ID) {
		return catalog.ErrMovieExists
	}
	s.movies[m.ID] = m
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.movies[id]; !ok {
		return catalog.ErrMovieNotFound
	}
	delete(s.movies, id)
	return nil
}

// taken reports whether a movie other than except has title and year.
// Titles compare case-insensitively, as under MySQL's default collation.
func (s *Store) taken(title string, year int, except int64) bool {
	for id, m := range s.movies {
		if id != except && m.Year == year && strings.EqualFold(m.Title, title) {
			return true
		}
	}
	return false
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

// Event is one recorded publish call.
type Event struct {
	RoutingKey string
	Movie      model.Movie
}

func (p *Publisher) Publish(_ context.Context, key string, m model.Movie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Event{RoutingKey: key, Movie: m})
	return p.Err
}

// Keys returns the routing keys published so far.
func (p *Publisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Events))
	for i, e := range p.Events {
		out[i] = e.RoutingKey
	}
	return out
}
