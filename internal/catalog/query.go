package catalog

import (
	"cmp"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/apperr"
	"github.com/iliyamo/movie-catalog/internal/model"
)

// MaxLimit caps the page size a caller may request.
const MaxLimit = 100

// Query defines filters, ordering and pagination for listing movies.
// Nil fields impose no constraint. Page and Limit only take effect when
// both are set.
type Query struct {
	Title            *string
	Genre            *string
	Studio           *string
	YearMin          *int
	YearMax          *int
	MinProfitability *float64
	OrderBy          string
	Page             *int
	Limit            *int
}

// Predicate is one active filter. Clause is a SQL boolean expression with a
// single placeholder bound to Arg; Match evaluates the same condition in
// process.
type Predicate struct {
	Param  string
	Clause string
	Arg    any
	Match  func(model.Movie) bool
}

type filter struct {
	param string
	build func(q Query) (Predicate, bool)
}

// filters maps every supported query parameter to the predicate it
// produces. Parameters not listed here are never applied.
var filters = []filter{
	{"title", func(q Query) (Predicate, bool) {
		return containsFold("title", q.Title, func(m model.Movie) string { return m.Title })
	}},
	{"genre", func(q Query) (Predicate, bool) {
		return containsFold("genre", q.Genre, func(m model.Movie) string { return m.Genre })
	}},
	{"studio", func(q Query) (Predicate, bool) {
		return containsFold("studio", q.Studio, func(m model.Movie) string { return m.Studio })
	}},
	{"year_min", func(q Query) (Predicate, bool) {
		if q.YearMin == nil {
			return Predicate{}, false
		}
		bound := *q.YearMin
		return Predicate{Clause: "year >= ?", Arg: bound, Match: func(m model.Movie) bool { return m.Year >= bound }}, true
	}},
	{"year_max", func(q Query) (Predicate, bool) {
		if q.YearMax == nil {
			return Predicate{}, false
		}
		bound := *q.YearMax
		return Predicate{Clause: "year <= ?", Arg: bound, Match: func(m model.Movie) bool { return m.Year <= bound }}, true
	}},
	{"min_profitability", func(q Query) (Predicate, bool) {
		if q.MinProfitability == nil {
			return Predicate{}, false
		}
		bound := *q.MinProfitability
		return Predicate{Clause: "profitability >= ?", Arg: bound, Match: func(m model.Movie) bool { return m.Profitability >= bound }}, true
	}},
}

func containsFold(column string, needle *string, field func(model.Movie) string) (Predicate, bool) {
	if needle == nil {
		return Predicate{}, false
	}
	lower := strings.ToLower(*needle)
	return Predicate{
		Clause: "LOWER(" + column + ") LIKE ?",
		Arg:    "%" + escapeLike(lower) + "%",
		Match:  func(m model.Movie) bool { return strings.Contains(strings.ToLower(field(m)), lower) },
	}, true
}

// escapeLike escapes LIKE wildcards so the needle matches literally under
// MySQL's default backslash escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type sortField struct {
	column  string
	compare func(a, b model.Movie) int
}

// sortFields lists the Movie fields a caller may order by.
var sortFields = map[string]sortField{
	"id":              {"id", func(a, b model.Movie) int { return cmp.Compare(a.ID, b.ID) }},
	"title":           {"title", func(a, b model.Movie) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }},
	"year":            {"year", func(a, b model.Movie) int { return cmp.Compare(a.Year, b.Year) }},
	"genre":           {"genre", func(a, b model.Movie) int { return strings.Compare(strings.ToLower(a.Genre), strings.ToLower(b.Genre)) }},
	"studio":          {"studio", func(a, b model.Movie) int { return strings.Compare(strings.ToLower(a.Studio), strings.ToLower(b.Studio)) }},
	"audience_score":  {"audience_score", func(a, b model.Movie) int { return cmp.Compare(a.AudienceScore, b.AudienceScore) }},
	"rotten_tomatoes": {"rotten_tomatoes", func(a, b model.Movie) int { return cmp.Compare(a.RottenTomatoes, b.RottenTomatoes) }},
	"profitability":   {"profitability", func(a, b model.Movie) int { return cmp.Compare(a.Profitability, b.Profitability) }},
	"worldwide_gross": {"worldwide_gross", func(a, b model.Movie) int { return cmp.Compare(a.WorldwideGross, b.WorldwideGross) }},
}

// Predicates returns the active filters in table order.
func (q Query) Predicates() []Predicate {
	out := make([]Predicate, 0, len(filters))
	for _, f := range filters {
		if p, ok := f.build(q); ok {
			p.Param = f.param
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether m satisfies every active filter.
func (q Query) Match(m model.Movie) bool {
	for _, p := range q.Predicates() {
		if !p.Match(m) {
			return false
		}
	}
	return true
}

// ordering resolves OrderBy against sortFields. An unknown field name
// yields ok=false and the caller applies no ordering.
func (q Query) ordering() (f sortField, desc bool, ok bool) {
	name := strings.TrimSpace(q.OrderBy)
	if name == "" {
		return sortField{}, false, false
	}
	desc = strings.HasPrefix(name, "-")
	f, ok = sortFields[strings.TrimLeft(name, "-")]
	return f, desc, ok
}

// OrderClause returns the SQL ORDER BY clause for the query. Rows are
// always tie-broken by ascending id so results are deterministic.
func (q Query) OrderClause() string {
	f, desc, ok := q.ordering()
	if !ok || f.column == "id" {
		if ok && desc {
			return "ORDER BY id DESC"
		}
		return "ORDER BY id ASC"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return "ORDER BY " + f.column + " " + dir + ", id ASC"
}

// Window returns the offset and limit when pagination applies. The offset
// never overflows: a page beyond math.MaxInt rows yields math.MaxInt.
func (q Query) Window() (offset, limit int, ok bool) {
	if q.Page == nil || q.Limit == nil {
		return 0, 0, false
	}
	page, limit := max(*q.Page, 1), max(*q.Limit, 0)
	if limit > 0 && page-1 > math.MaxInt/limit {
		// Past any addressable row; saturate instead of wrapping negative.
		return math.MaxInt, limit, true
	}
	return (page - 1) * limit, limit, true
}

// Apply filters, orders and paginates movies in process. It mirrors what
// the SQL store does with Predicates, OrderClause and Window.
func (q Query) Apply(movies []model.Movie) []model.Movie {
	out := make([]model.Movie, 0, len(movies))
	for _, m := range movies {
		if q.Match(m) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Movie) int { return cmp.Compare(a.ID, b.ID) })
	if f, desc, ok := q.ordering(); ok {
		slices.SortStableFunc(out, func(a, b model.Movie) int {
			if desc {
				return f.compare(b, a)
			}
			return f.compare(a, b)
		})
	}
	offset, limit, ok := q.Window()
	if !ok {
		return out
	}
	if offset >= len(out) {
		return []model.Movie{}
	}
	end := min(offset+limit, len(out))
	return out[offset:end]
}

// ParseQuery builds a Query from URL query parameters. Empty values are
// treated as absent. Malformed numbers and out-of-range pagination are
// validation errors.
func ParseQuery(values url.Values) (Query, error) {
	var q Query
	str := func(key string) *string {
		v := strings.TrimSpace(values.Get(key))
		if v == "" {
			return nil
		}
		return &v
	}
	q.Title = str("title")
	q.Genre = str("genre")
	q.Studio = str("studio")
	q.OrderBy = strings.TrimSpace(values.Get("order_by"))

	var err error
	if q.YearMin, err = intParam(values, "year_min"); err != nil {
		return Query{}, err
	}
	if q.YearMax, err = intParam(values, "year_max"); err != nil {
		return Query{}, err
	}
	if q.Page, err = intParam(values, "page"); err != nil {
		return Query{}, err
	}
	if q.Limit, err = intParam(values, "limit"); err != nil {
		return Query{}, err
	}
	if v := strings.TrimSpace(values.Get("min_profitability")); v != "" {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return Query{}, apperr.Validation("min_profitability must be a number")
		}
		q.MinProfitability = &f
	}

	if q.Page != nil && *q.Page < 1 {
		return Query{}, apperr.Validation("page must be greater than zero")
	}
	if q.Limit != nil && (*q.Limit < 1 || *q.Limit > MaxLimit) {
		return Query{}, apperr.Validation("limit must be between 1 and %d", MaxLimit)
	}
	return q, nil
}

func intParam(values url.Values, key string) (*int, error) {
	v := strings.TrimSpace(values.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer", key)
	}
	return &n, nil
}
