// Package queue publishes catalog change notifications to RabbitMQ.
package queue

import (
	"time"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MovieEvent is published after a movie is created, updated or deleted.
// Movie is omitted for deletions, which only carry the id.
type MovieEvent struct {
	Type       string       `json:"type"`
	MovieID    int64        `json:"movie_id"`
	Movie      *model.Movie `json:"movie,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
