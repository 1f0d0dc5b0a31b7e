package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/model"
)

func ptr[T any](v T) *T { return &v }

var movieCols = []string{"id", "title", "year", "genre", "studio", "audience_score", "rotten_tomatoes", "profitability", "worldwide_gross"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func inception() model.Movie {
	return model.Movie{Title: "Inception", Year: 2010, Genre: "Action", Studio: "Warner Bros.",
		AudienceScore: 91, RottenTomatoes: 87, Profitability: 5.2, WorldwideGross: 828.3}
}

func TestMovieRepoListBuildsQuery(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMovieRepo(db)
	q := catalog.Query{Title: ptr("Inc"), YearMin: ptr(2000), OrderBy: "-year", Page: ptr(2), Limit: ptr(5)}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT " + movieColumns + " FROM movies WHERE LOWER(title) LIKE ? AND year >= ? ORDER BY year DESC, id ASC LIMIT ? OFFSET ?")).
		WithArgs("%inc%", 2000, 5, 5).
		WillReturnRows(sqlmock.NewRows(movieCols).
			AddRow(1, "Inception", 2010, "Action", "Warner Bros.", 91, 87, 5.2, 828.3))

	got, err := repo.List(context.Background(), q)

	require.NoError(t, err)
	require.Len(t, got, 1)
	want := inception()
	want.ID = 1
	assert.Equal(t, want, got[0])
}

func TestMovieRepoListWithoutFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMovieRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + movieColumns + " FROM movies ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows(movieCols))

	got, err := repo.List(context.Background(), catalog.Query{OrderBy: "unknown_field"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMovieRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE id = ?")).
		WithArgs(999999).
		WillReturnRows(sqlmock.NewRows(movieCols))

	_, err := NewMovieRepo(db).GetByID(context.Background(), 999999)

	assert.ErrorIs(t, err, catalog.ErrMovieNotFound)
}

func TestMovieRepoCount(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := NewMovieRepo(db).Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestMovieRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	m := inception()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE title = ? AND year = ? AND id <> ?")).
		WithArgs("Inception", 2010, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies")).
		WithArgs("Inception", 2010, "Action", "Warner Bros.", 91, 87, 5.2, 828.3).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	require.NoError(t, NewMovieRepo(db).Create(context.Background(), &m))
	assert.Equal(t, int64(7), m.ID)
}

func TestMovieRepoCreateDuplicateFromLookup(t *testing.T) {
	db, mock := newMock(t)
	m := inception()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE title = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	err := NewMovieRepo(db).Create(context.Background(), &m)

	assert.ErrorIs(t, err, catalog.ErrMovieExists)
	assert.Zero(t, m.ID)
}

func TestMovieRepoCreateDuplicateFromUniqueKey(t *testing.T) {
	db, mock := newMock(t)
	m := inception()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE title = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'Inception-2010'"})
	mock.ExpectRollback()

	err := NewMovieRepo(db).Create(context.Background(), &m)

	assert.ErrorIs(t, err, catalog.ErrMovieExists)
}

func TestMovieRepoReplace(t *testing.T) {
	db, mock := newMock(t)
	m := inception()
	m.ID = 4

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE id = ? FOR UPDATE")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE title = ? AND year = ? AND id <> ?")).
		WithArgs("Inception", 2010, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE movies")).
		WithArgs("Inception", 2010, "Action", "Warner Bros.", 91, 87, 5.2, 828.3, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, NewMovieRepo(db).Replace(context.Background(), m))
}

func TestMovieRepoReplaceMissingRollsBack(t *testing.T) {
	db, mock := newMock(t)
	m := inception()
	m.ID = 999999

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE id = ? FOR UPDATE")).
		WithArgs(999999).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := NewMovieRepo(db).Replace(context.Background(), m)

	assert.ErrorIs(t, err, catalog.ErrMovieNotFound)
}

func TestMovieRepoReplaceConflictRollsBack(t *testing.T) {
	db, mock := newMock(t)
	m := inception()
	m.ID = 4

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM movies WHERE title = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectRollback()

	err := NewMovieRepo(db).Replace(context.Background(), m)

	assert.ErrorIs(t, err, catalog.ErrMovieExists)
}

func TestMovieRepoDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMovieRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movies WHERE id = ?")).
		WithArgs(4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movies WHERE id = ?")).
		WithArgs(999999).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), 999999), catalog.ErrMovieNotFound)
}

func TestIsDuplicateEntry(t *testing.T) {
	assert.True(t, isDuplicateEntry(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateEntry(&mysql.MySQLError{Number: 1146}))
	assert.False(t, isDuplicateEntry(errors.New("Error 1062: looks similar")))
	assert.False(t, isDuplicateEntry(nil))
}
