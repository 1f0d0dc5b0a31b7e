// Package importer seeds the catalog from a CSV export. It only runs
// against an empty catalog and never fails on a bad row.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/catalog"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// CSV header names.
const (
	colTitle          = "Film"
	colYear           = "Year"
	colGenre          = "Genre"
	colStudio         = "Lead Studio"
	colAudienceScore  = "Audience score %"
	colRottenTomatoes = "Rotten Tomatoes %"
	colProfitability  = "Profitability"
	colWorldwideGross = "Worldwide Gross"
)

var required = []string{colTitle, colYear, colGenre, colStudio}

// Report summarizes an import run. NotEmpty is set when the catalog
// already held movies and nothing was read.
type Report struct {
	Inserted   int  `json:"inserted"`
	Duplicates int  `json:"duplicates"`
	Skipped    int  `json:"skipped"`
	NotEmpty   bool `json:"not_empty"`
}

// Importer loads movies into a catalog.Store.
type Importer struct {
	store  catalog.Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store catalog.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, logger: logger, now: time.Now}
}

// ImportFile opens path and runs Import on it.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, oops.With("path", path).Wrapf(err, "open csv")
	}
	defer f.Close()
	return im.Import(ctx, f)
}

// Import reads CSV rows from r and inserts them when the catalog is empty.
// Rows with missing or unparseable fields and rows that fail
// catalog.ValidateRecord are logged and skipped. A (title, year) pair already
// present is counted as a duplicate. Only reader and store failures are
// returned as errors.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	var rep Report
	n, err := im.store.Count(ctx)
	if err != nil {
		return rep, oops.Wrapf(err, "count movies")
	}
	if n > 0 {
		im.logger.InfoContext(ctx, "catalog not empty, import skipped", slog.Int64("movies", n))
		rep.NotEmpty = true
		return rep, nil
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return rep, oops.Wrapf(err, "read csv header")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return rep, apperr.Validation("csv header is missing column %q", col)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rep, oops.With("line", line).Wrapf(err, "read csv")
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		m, reason := parseRow(get)
		if reason == "" {
			if err := catalog.ValidateRecord(m, im.now()); err != nil {
				reason = apperr.Message(err)
			}
		}
		if reason != "" {
			im.logger.WarnContext(ctx, "csv row skipped", slog.Int("line", line), slog.String("reason", reason))
			rep.Skipped++
			continue
		}
		switch err := im.store.Create(ctx, &m); {
		case errors.Is(err, catalog.ErrMovieExists):
			rep.Duplicates++
		case err != nil:
			return rep, oops.With("line", line, "title", m.Title).Wrapf(err, "insert movie")
		default:
			rep.Inserted++
		}
	}

	im.logger.InfoContext(ctx, "csv import finished",
		slog.Int("inserted", rep.Inserted),
		slog.Int("duplicates", rep.Duplicates),
		slog.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// parseRow builds a movie from one record. A non-empty reason means the
// row must be skipped.
func parseRow(get func(string) string) (model.Movie, string) {
	title, year, genre, studio := get(colTitle), get(colYear), get(colGenre), get(colStudio)
	if title == "" || year == "" || genre == "" || studio == "" {
		return model.Movie{}, "missing fields"
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return model.Movie{}, "invalid year " + strconv.Quote(year)
	}
	g, err := catalog.NormalizeGenre(genre)
	if err != nil {
		return model.Movie{}, "unsupported genre " + strconv.Quote(genre)
	}

	audience, ok1 := parsePercent(get(colAudienceScore))
	rotten, ok2 := parsePercent(get(colRottenTomatoes))
	profit, ok3 := parseNumber(get(colProfitability))
	gross, ok4 := parseGross(get(colWorldwideGross))
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return model.Movie{}, "invalid numeric data"
	}

	return model.Movie{
		Title:          title,
		Year:           y,
		Genre:          g,
		Studio:         studio,
		AudienceScore:  audience,
		RottenTomatoes: rotten,
		Profitability:  profit,
		WorldwideGross: gross,
	}, ""
}

// parsePercent parses "87%" or "87.6" and truncates to an int.
func parsePercent(s string) (int, bool) {
	f, ok := parseNumber(strings.TrimSpace(strings.ReplaceAll(s, "%", "")))
	if !ok {
		return 0, false
	}
	return int(f), true
}

// parseGross parses "$1,234.5" as 1234.5.
func parseGross(s string) (float64, bool) {
	return parseNumber(strings.NewReplacer("$", "", ",", "").Replace(s))
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
