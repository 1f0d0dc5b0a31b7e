// Package authtest provides an in-memory auth.UserStore for tests.
package authtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-catalog/internal/auth"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// Store keeps users keyed by email.
type Store struct {
	mu     sync.Mutex
	users  map[string]model.User
	nextID int64

	// Err, when set, is returned by every method.
	Err error
}

func NewStore() *Store {
	return &Store{users: make(map[string]model.User)}
}

func (s *Store) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[u.Email]; ok {
		return auth.ErrEmailExists
	}
	s.nextID++
	u.ID = s.nextID
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.Email] = *u
	return nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.User{}, s.Err
	}
	u, ok := s.users[email]
	if !ok {
		return model.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) List(context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
