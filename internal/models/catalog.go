package models

import "strings"

// Cinema is a cinema known to the catalog.
type Cinema struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// MovieAttributes is the canonical movie shape the scorer reads. Absent
// attributes are nil and contribute nothing to a score.
type MovieAttributes struct {
	Title      string   `json:"title"`
	ImdbRating *float64 `json:"imdb_rating"`
	Genres     string   `json:"genre"`
	Director   *string  `json:"director"`
	Actors     *string  `json:"actors"`
}

// GenreList splits the comma-separated genre field into trimmed tokens.
func (m MovieAttributes) GenreList() []string {
	if strings.TrimSpace(m.Genres) == "" {
		return nil
	}
	parts := strings.Split(m.Genres, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ShowtimeCandidate is an upcoming showtime joined with its movie.
type ShowtimeCandidate struct {
	MovieID    int64           `json:"movie_id"`
	ShowtimeID int64           `json:"showtime_id"`
	CinemaID   int64           `json:"cinema_id"`
	ShowDate   string          `json:"show_date"`
	ShowTime   string          `json:"show_time"`
	Movie      MovieAttributes `json:"movie"`
}
