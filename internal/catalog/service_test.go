package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/catalog/catalogtest"
	"github.com/iliyamo/movie-catalog/internal/model"
)

const currentYear = 2026

func fixedClock() time.Time { return time.Date(currentYear, time.June, 1, 12, 0, 0, 0, time.UTC) }

func newService(t *testing.T, movies ...model.Movie) (*catalog.Service, *catalogtest.Store, *catalogtest.Publisher) {
	t.Helper()
	store := catalogtest.NewStore(movies...)
	pub := &catalogtest.Publisher{}
	return catalog.NewService(store, catalog.WithClock(fixedClock), catalog.WithPublisher(pub)), store, pub
}

func inception() catalog.MovieInput {
	return catalog.MovieInput{
		Title:          "Inception",
		Year:           2010,
		Genre:          "action",
		Studio:         "Warner Bros.",
		AudienceScore:  91,
		RottenTomatoes: 87,
		Profitability:  5.2,
		WorldwideGross: 828.3,
	}
}

func TestCreateAssignsIDAndNormalizesGenre(t *testing.T) {
	svc, store, pub := newService(t)

	m, err := svc.Create(context.Background(), inception())

	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, "Action", m.Genre)
	stored, err := store.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, stored)
	assert.Equal(t, []string{catalog.EventMovieCreated}, pub.Keys())
}

func TestCreateDuplicateTitleAndYearConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), inception())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*catalog.MovieInput)
	}{
		{"missing title", func(in *catalog.MovieInput) { in.Title = "" }},
		{"short title", func(in *catalog.MovieInput) { in.Title = " X " }},
		{"missing year", func(in *catalog.MovieInput) { in.Year = 0 }},
		{"year before 1900", func(in *catalog.MovieInput) { in.Year = 1899 }},
		{"future year", func(in *catalog.MovieInput) { in.Year = currentYear + 1; in.AudienceScore = 50 }},
		{"unknown genre", func(in *catalog.MovieInput) { in.Genre = "Musical" }},
		{"short studio", func(in *catalog.MovieInput) { in.Studio = "W" }},
		{"audience score over 100", func(in *catalog.MovieInput) { in.AudienceScore = 101 }},
		{"negative rotten tomatoes", func(in *catalog.MovieInput) { in.RottenTomatoes = -1 }},
		{"negative profitability", func(in *catalog.MovieInput) { in.Profitability = -0.1 }},
		{"negative gross", func(in *catalog.MovieInput) { in.WorldwideGross = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, pub := newService(t)
			in := inception()
			tt.mutate(&in)

			_, err := svc.Create(context.Background(), in)

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), err.Error())
			n, _ := store.Count(context.Background())
			assert.Zero(t, n)
			assert.Empty(t, pub.Events)
		})
	}
}

func TestRecencyRule(t *testing.T) {
	for _, year := range []int{currentYear, currentYear - 1, currentYear - 2} {
		svc, _, _ := newService(t)
		in := inception()
		in.Year = year
		in.AudienceScore = 0

		_, err := svc.Create(context.Background(), in)
		require.Error(t, err, year)
		assert.True(t, apperr.Is(err, apperr.CodeValidation))

		in.AudienceScore = 1
		_, err = svc.Create(context.Background(), in)
		require.NoError(t, err, year)
	}

	svc, _, _ := newService(t)
	in := inception()
	in.Year = currentYear - 3
	in.AudienceScore = 0
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestReplace(t *testing.T) {
	svc, store, pub := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	in := inception()
	in.Title = "Inception (Extended)"
	in.Genre = "sci-fi"
	got, err := svc.Replace(context.Background(), created.ID, in)

	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Sci-Fi", got.Genre)
	stored, _ := store.GetByID(context.Background(), created.ID)
	assert.Equal(t, "Inception (Extended)", stored.Title)
	assert.Equal(t, []string{catalog.EventMovieCreated, catalog.EventMovieUpdated}, pub.Keys())
}

func TestReplaceRejectedKeepsOriginal(t *testing.T) {
	svc, store, _ := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	in := inception()
	in.Year = currentYear
	in.AudienceScore = 0
	_, err = svc.Replace(context.Background(), created.ID, in)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestReplaceOntoExistingTitleAndYearConflicts(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)
	other := inception()
	other.Title = "Interstellar"
	other.Year = 2014
	second, err := svc.Create(context.Background(), other)
	require.NoError(t, err)

	_, err = svc.Replace(context.Background(), second.ID, inception())

	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestReplaceSameRecordIsNotAConflict(t *testing.T) {
	svc, _, _ := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	_, err = svc.Replace(context.Background(), created.ID, inception())

	assert.NoError(t, err)
}

func TestPatchMergesSuppliedFields(t *testing.T) {
	svc, _, pub := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	got, err := svc.Patch(context.Background(), created.ID, catalog.MoviePatch{
		Genre:         ptr("thriller"),
		AudienceScore: ptr(95),
	})

	require.NoError(t, err)
	assert.Equal(t, "Thriller", got.Genre)
	assert.Equal(t, 95, got.AudienceScore)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Year, got.Year)
	assert.Equal(t, created.WorldwideGross, got.WorldwideGross)
	assert.Equal(t, catalog.EventMovieUpdated, pub.Keys()[1])
}

func TestPatchChecksMergedRecord(t *testing.T) {
	svc, _, _ := newService(t)
	in := inception()
	in.Year = 2000
	in.AudienceScore = 0
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Patch(context.Background(), created.ID, catalog.MoviePatch{Year: ptr(currentYear)})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.Patch(context.Background(), created.ID, catalog.MoviePatch{Year: ptr(currentYear), AudienceScore: ptr(1)})
	assert.NoError(t, err)

	_, err = svc.Patch(context.Background(), created.ID, catalog.MoviePatch{Genre: ptr("Musical")})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = svc.Patch(context.Background(), created.ID, catalog.MoviePatch{AudienceScore: ptr(200)})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestPatchTrimsBeforeValidating(t *testing.T) {
	svc, store, pub := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	for _, p := range []catalog.MoviePatch{
		{Title: ptr("  a  ")},
		{Studio: ptr(" W ")},
		{Title: ptr("   ")},
	} {
		_, err := svc.Patch(context.Background(), created.ID, p)
		assert.True(t, apperr.Is(err, apperr.CodeValidation))
	}

	stored, err := store.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
	assert.Equal(t, []string{catalog.EventMovieCreated}, pub.Keys())

	got, err := svc.Patch(context.Background(), created.ID, catalog.MoviePatch{Title: ptr("  Inception 2  ")})
	require.NoError(t, err)
	assert.Equal(t, "Inception 2", got.Title)
}

func TestValidateRecord(t *testing.T) {
	valid := model.Movie{
		Title: "Inception", Year: 2010, Genre: "Action", Studio: "Warner Bros.",
		AudienceScore: 91, RottenTomatoes: 87, Profitability: 5.2, WorldwideGross: 828.3,
	}
	require.NoError(t, catalog.ValidateRecord(valid, fixedClock()))

	recent := valid
	recent.Year, recent.AudienceScore = currentYear, 0
	assert.NoError(t, catalog.ValidateRecord(recent, fixedClock()), "recency rule is not a record rule")

	tests := []struct {
		name   string
		mutate func(*model.Movie)
	}{
		{"year before 1900", func(m *model.Movie) { m.Year = 1800 }},
		{"future year", func(m *model.Movie) { m.Year = 3000 }},
		{"score above 100", func(m *model.Movie) { m.AudienceScore = 150 }},
		{"negative rotten tomatoes", func(m *model.Movie) { m.RottenTomatoes = -1 }},
		{"title too long", func(m *model.Movie) { m.Title = strings.Repeat("x", 200) }},
		{"short studio", func(m *model.Movie) { m.Studio = "W" }},
		{"unknown genre", func(m *model.Movie) { m.Genre = "Musical" }},
		{"negative gross", func(m *model.Movie) { m.WorldwideGross = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			assert.True(t, apperr.Is(catalog.ValidateRecord(m, fixedClock()), apperr.CodeValidation))
		})
	}
}

func TestUnknownIDIsNotFound(t *testing.T) {
	svc, _, pub := newService(t)
	const missing = 999999

	_, err := svc.Get(context.Background(), missing)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = svc.Replace(context.Background(), missing, inception())
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = svc.Patch(context.Background(), missing, catalog.MoviePatch{AudienceScore: ptr(10)})
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = svc.Delete(context.Background(), missing)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	assert.Empty(t, pub.Events)
}

func TestDelete(t *testing.T) {
	svc, store, pub := newService(t)
	created, err := svc.Create(context.Background(), inception())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	_, err = store.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, catalog.ErrMovieNotFound)
	assert.Equal(t, catalog.EventMovieDeleted, pub.Events[1].RoutingKey)
	assert.Equal(t, created.ID, pub.Events[1].Movie.ID)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	store := catalogtest.NewStore()
	pub := &catalogtest.Publisher{Err: errors.New("broker down")}
	svc := catalog.NewService(store, catalog.WithClock(fixedClock), catalog.WithPublisher(pub))

	_, err := svc.Create(context.Background(), inception())

	assert.NoError(t, err)
	assert.Len(t, pub.Events, 1)
}

func TestStoreFailureIsInternal(t *testing.T) {
	svc, store, _ := newService(t)
	store.Err = errors.New("connection refused")

	_, err := svc.Create(context.Background(), inception())
	require.Error(t, err)
	assert.Empty(t, apperr.Code(err))
	assert.Equal(t, 500, apperr.Status(err))

	_, err = svc.List(context.Background(), catalog.Query{})
	assert.Equal(t, 500, apperr.Status(err))
}

func TestListUsesQuery(t *testing.T) {
	svc, _, _ := newService(t, fixtures()...)

	got, err := svc.List(context.Background(), catalog.Query{Genre: ptr("comedy"), OrderBy: "-year"})

	require.NoError(t, err)
	assert.Equal(t, []int64{4, 2}, ids(got))
}

func TestNewServicePanicsOnNilStore(t *testing.T) {
	assert.Panics(t, func() { catalog.NewService(nil) })
}
