package catalog

import (
	"strings"
	"unicode"

	"github.com/iliyamo/movie-catalog/internal/apperr"
)

// Genres lists the accepted genre names in their canonical form.
var Genres = []string{"Action", "Drama", "Comedy", "Sci-Fi", "Romance", "Fantasy", "Animation", "Horror", "Thriller"}

var genreSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Genres))
	for _, g := range Genres {
		m[g] = struct{}{}
	}
	return m
}()

// NormalizeGenre trims and title-cases raw ("sci-fi" becomes "Sci-Fi") and
// rejects anything outside Genres.
func NormalizeGenre(raw string) (string, error) {
	g := titleCase(strings.TrimSpace(raw))
	if _, ok := genreSet[g]; !ok {
		return "", apperr.Validation("genre %q is not allowed, valid genres: %s", raw, strings.Join(Genres, ", "))
	}
	return g, nil
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest. Any non-letter starts a new word.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
			continue
		}
		inWord = false
		b.WriteRune(r)
	}
	return b.String()
}
