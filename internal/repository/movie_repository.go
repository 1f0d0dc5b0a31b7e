package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/model"
)

const movieColumns = "id, title, year, genre, studio, audience_score, rotten_tomatoes, profitability, worldwide_gross"

// MovieRepo encapsulates all database queries related to movies. It
// implements catalog.Store.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovie(row scanner) (model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Year, &m.Genre, &m.Studio,
		&m.AudienceScore, &m.RottenTomatoes, &m.Profitability, &m.WorldwideGross)
	return m, err
}

// List builds a single SELECT from the query's predicates, ordering and
// window. Every value is bound as a placeholder argument.
func (r *MovieRepo) List(ctx context.Context, q catalog.Query) ([]model.Movie, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString("SELECT " + movieColumns + " FROM movies")
	preds := q.Predicates()
	for i, p := range preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.Clause)
		args = append(args, p.Arg)
	}
	sb.WriteString(" " + q.OrderClause())
	if offset, limit, ok := q.Window(); ok {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MovieRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

// GetByID returns catalog.ErrMovieNotFound if no row is found.
func (r *MovieRepo) GetByID(ctx context.Context, id int64) (model.Movie, error) {
	m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, catalog.ErrMovieNotFound
		}
		return model.Movie{}, err
	}
	return m, nil
}

// Create inserts m inside a transaction that first locks any row with the
// same title and year. The unique key on (title, year) backs the check when
// two inserts race.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = checkTitleYear(ctx, tx, m.Title, m.Year, 0); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO movies (title, year, genre, studio, audience_score, rotten_tomatoes, profitability, worldwide_gross)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Year, m.Genre, m.Studio, m.AudienceScore, m.RottenTomatoes, m.Profitability, m.WorldwideGross)
	if err != nil {
		if isDuplicateEntry(err) {
			err = catalog.ErrMovieExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	m.ID = id
	return nil
}

// Replace overwrites the row with m.ID in place. Existence and uniqueness
// are checked under row locks in the same transaction as the UPDATE, so a
// failed replace leaves the stored row untouched.
func (r *MovieRepo) Replace(ctx context.Context, m model.Movie) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var found int64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE id = ? FOR UPDATE", m.ID).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = catalog.ErrMovieNotFound
		}
		return err
	}
	if err = checkTitleYear(ctx, tx, m.Title, m.Year, m.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE movies
		 SET title = ?, year = ?, genre = ?, studio = ?, audience_score = ?,
		     rotten_tomatoes = ?, profitability = ?, worldwide_gross = ?
		 WHERE id = ?`,
		m.Title, m.Year, m.Genre, m.Studio, m.AudienceScore, m.RottenTomatoes, m.Profitability, m.WorldwideGross, m.ID)
	if err != nil {
		if isDuplicateEntry(err) {
			err = catalog.ErrMovieExists
		}
		return err
	}
	return tx.Commit()
}

// Delete removes the row with id and returns catalog.ErrMovieNotFound when
// nothing was deleted.
func (r *MovieRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrMovieNotFound
	}
	return nil
}

// checkTitleYear returns catalog.ErrMovieExists when a row other than
// except already has title and year.
func checkTitleYear(ctx context.Context, tx *sql.Tx, title string, year int, except int64) error {
	var id int64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM movies WHERE title = ? AND year = ? AND id <> ? LIMIT 1 FOR UPDATE",
		title, year, except).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	}
	return catalog.ErrMovieExists
}
