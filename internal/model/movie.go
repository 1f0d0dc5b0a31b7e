package model

// Movie represents a catalog entry as stored in the `movies` table.
// The (Title, Year) pair is unique across the table.
//
// Fields:
//   - ID: primary key identifier.
//   - Title: 2 to 120 characters.
//   - Year: release year, 1900 up to the current year.
//   - Genre: one of the enumerated, title-cased genres.
//   - Studio: lead studio name.
//   - AudienceScore: audience rating percentage (0-100).
//   - RottenTomatoes: critics rating percentage (0-100).
//   - Profitability: gross divided by budget; never negative.
//   - WorldwideGross: gross in millions of dollars; never negative.
type Movie struct {
	ID             int64   `json:"id"`              // movies.id
	Title          string  `json:"title"`           // movies.title
	Year           int     `json:"year"`            // movies.year
	Genre          string  `json:"genre"`           // movies.genre
	Studio         string  `json:"studio"`          // movies.studio
	AudienceScore  int     `json:"audience_score"`  // movies.audience_score
	RottenTomatoes int     `json:"rotten_tomatoes"` // movies.rotten_tomatoes
	Profitability  float64 `json:"profitability"`   // movies.profitability
	WorldwideGross float64 `json:"worldwide_gross"` // movies.worldwide_gross
}
