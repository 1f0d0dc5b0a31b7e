package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// recentYears is the window, counted back from the current year, in which
// a movie must carry a non-zero audience score.
const recentYears = 2

// MovieInput is the full set of writable movie fields, used by create and
// full replace.
type MovieInput struct {
	Title          string  `json:"title" validate:"required,min=2,max=120"`
	Year           int     `json:"year" validate:"required,gte=1900"`
	Genre          string  `json:"genre" validate:"required"`
	Studio         string  `json:"studio" validate:"required,min=2"`
	AudienceScore  int     `json:"audience_score" validate:"gte=0,lte=100"`
	RottenTomatoes int     `json:"rotten_tomatoes" validate:"gte=0,lte=100"`
	Profitability  float64 `json:"profitability" validate:"gte=0"`
	WorldwideGross float64 `json:"worldwide_gross" validate:"gte=0"`
}

// MoviePatch carries the fields supplied to a partial update. Nil fields
// keep their stored value.
type MoviePatch struct {
	Title          *string  `json:"title" validate:"omitnil,min=2,max=120"`
	Year           *int     `json:"year" validate:"omitnil,gte=1900"`
	Genre          *string  `json:"genre"`
	Studio         *string  `json:"studio" validate:"omitnil,min=2"`
	AudienceScore  *int     `json:"audience_score" validate:"omitnil,gte=0,lte=100"`
	RottenTomatoes *int     `json:"rotten_tomatoes" validate:"omitnil,gte=0,lte=100"`
	Profitability  *float64 `json:"profitability" validate:"omitnil,gte=0"`
	WorldwideGross *float64 `json:"worldwide_gross" validate:"omitnil,gte=0"`
}

// recordValidator checks stored field ranges through the MovieInput tags.
var recordValidator = apperr.NewValidator()

// ValidateRecord checks m against the field rules every stored movie obeys:
// title 2 to 120 characters, year from 1900 up to the year of now, a genre
// from Genres, studio of at least 2 characters, scores within 0..100 and
// non-negative profitability and gross. The recency rule is not applied.
func ValidateRecord(m model.Movie, now time.Time) error {
	in := MovieInput{
		Title:          m.Title,
		Year:           m.Year,
		Genre:          m.Genre,
		Studio:         m.Studio,
		AudienceScore:  m.AudienceScore,
		RottenTomatoes: m.RottenTomatoes,
		Profitability:  m.Profitability,
		WorldwideGross: m.WorldwideGross,
	}
	if err := recordValidator.Struct(in); err != nil {
		return apperr.FromValidation(err)
	}
	if _, err := NormalizeGenre(m.Genre); err != nil {
		return err
	}
	if current := now.Year(); m.Year > current {
		return apperr.Validation("year cannot be in the future (current year: %d)", current)
	}
	return nil
}

// Service applies the catalog mutation policy on top of a Store.
type Service struct {
	store     Store
	publisher Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sends a notification after every successful mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source used for year checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger used for publish failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService constructs a Service and panics if store is nil.
func NewService(store Store, opts ...Option) *Service {
	if store == nil {
		panic("nil store passed to catalog.NewService")
	}
	s := &Service{
		store:    store,
		validate: apperr.NewValidator(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List runs q against the store.
func (s *Service) List(ctx context.Context, q Query) ([]model.Movie, error) {
	movies, err := s.store.List(ctx, q)
	if err != nil {
		return nil, oops.Wrapf(err, "list movies")
	}
	return movies, nil
}

// Get returns a single movie.
func (s *Service) Get(ctx context.Context, id int64) (model.Movie, error) {
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Movie{}, s.storeError(err, id)
	}
	return m, nil
}

// Create validates in and persists it as a new movie.
func (s *Service) Create(ctx context.Context, in MovieInput) (model.Movie, error) {
	m, err := s.build(in)
	if err != nil {
		return model.Movie{}, err
	}
	if err := s.store.Create(ctx, &m); err != nil {
		return model.Movie{}, s.storeError(err, 0)
	}
	s.publish(ctx, EventMovieCreated, m)
	return m, nil
}

// Replace overwrites every field of movie id. Validation happens before
// the store is touched, and the store swaps the row in one transaction, so
// a rejected replace leaves the original record intact.
func (s *Service) Replace(ctx context.Context, id int64, in MovieInput) (model.Movie, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return model.Movie{}, s.storeError(err, id)
	}
	m, err := s.build(in)
	if err != nil {
		return model.Movie{}, err
	}
	m.ID = id
	if err := s.store.Replace(ctx, m); err != nil {
		return model.Movie{}, s.storeError(err, id)
	}
	s.publish(ctx, EventMovieUpdated, m)
	return m, nil
}

// Patch merges the supplied fields over movie id and re-checks the merged
// record before saving it.
func (s *Service) Patch(ctx context.Context, id int64, p MoviePatch) (model.Movie, error) {
	cur, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Movie{}, s.storeError(err, id)
	}
	p.Title = trimmed(p.Title)
	p.Studio = trimmed(p.Studio)
	if err := s.validate.Struct(p); err != nil {
		return model.Movie{}, apperr.FromValidation(err)
	}

	m := cur
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.Genre != nil {
		if m.Genre, err = NormalizeGenre(*p.Genre); err != nil {
			return model.Movie{}, err
		}
	}
	if p.Studio != nil {
		m.Studio = *p.Studio
	}
	if p.AudienceScore != nil {
		m.AudienceScore = *p.AudienceScore
	}
	if p.RottenTomatoes != nil {
		m.RottenTomatoes = *p.RottenTomatoes
	}
	if p.Profitability != nil {
		m.Profitability = *p.Profitability
	}
	if p.WorldwideGross != nil {
		m.WorldwideGross = *p.WorldwideGross
	}
	if err := s.checkRules(m); err != nil {
		return model.Movie{}, err
	}

	if err := s.store.Replace(ctx, m); err != nil {
		return model.Movie{}, s.storeError(err, id)
	}
	s.publish(ctx, EventMovieUpdated, m)
	return m, nil
}

// Delete removes movie id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(err, id)
	}
	s.publish(ctx, EventMovieDeleted, model.Movie{ID: id})
	return nil
}

// build validates a full input and returns the normalized movie.
func (s *Service) build(in MovieInput) (model.Movie, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Studio = strings.TrimSpace(in.Studio)
	if err := s.validate.Struct(in); err != nil {
		return model.Movie{}, apperr.FromValidation(err)
	}
	genre, err := NormalizeGenre(in.Genre)
	if err != nil {
		return model.Movie{}, err
	}
	m := model.Movie{
		Title:          in.Title,
		Year:           in.Year,
		Genre:          genre,
		Studio:         in.Studio,
		AudienceScore:  in.AudienceScore,
		RottenTomatoes: in.RottenTomatoes,
		Profitability:  in.Profitability,
		WorldwideGross: in.WorldwideGross,
	}
	if err := s.checkRules(m); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

// checkRules runs ValidateRecord and then the recency rule.
func (s *Service) checkRules(m model.Movie) error {
	now := s.now()
	if err := ValidateRecord(m, now); err != nil {
		return err
	}
	if current := now.Year(); m.Year >= current-recentYears && m.AudienceScore == 0 {
		return apperr.Validation("movies released within the last %d years must have a non-zero audience_score", recentYears)
	}
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (s *Service) storeError(err error, id int64) error {
	switch {
	case errors.Is(err, ErrMovieNotFound):
		return apperr.NotFound("movie with id %d not found", id)
	case errors.Is(err, ErrMovieExists):
		return apperr.Conflict("a movie with the same title and year already exists")
	}
	return oops.With("movie_id", id).Wrapf(err, "catalog store")
}

func (s *Service) publish(ctx context.Context, key string, m model.Movie) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, m); err != nil {
		s.logger.WarnContext(ctx, "catalog event not published",
			slog.String("routing_key", key), slog.Int64("movie_id", m.ID), slog.String("error", err.Error()))
	}
}
