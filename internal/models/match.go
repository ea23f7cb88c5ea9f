package models

import "time"

// MatchCandidate is a scored showtime that passed the minimum score but
// has not been persisted yet.
type MatchCandidate struct {
	MovieID    int64    `json:"movie_id"`
	ShowtimeID int64    `json:"showtime_id"`
	CinemaID   int64    `json:"cinema_id"`
	MovieTitle string   `json:"movie_title"`
	ShowDate   string   `json:"show_date"`
	ShowTime   string   `json:"show_time"`
	Score      float64  `json:"match_score"`
	Reasons    []string `json:"reasons"`
}

// MatchResult is a persisted match, unique per (user, movie, showtime).
type MatchResult struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    int64     `json:"movie_id"`
	ShowtimeID int64     `json:"showtime_id"`
	Score      float64   `json:"match_score"`
	Reasons    []string  `json:"reasons"`
	IsNotified bool      `json:"is_notified"`
	CreatedAt  time.Time `json:"created_at"`
}

// PendingMatch is an unnotified match joined with the details a
// notification needs.
type PendingMatch struct {
	MatchResult
	MovieTitle string `json:"movie_title"`
	CinemaName string `json:"cinema_name"`
	ShowDate   string `json:"show_date"`
	ShowTime   string `json:"show_time"`
}

// MatchListParams pages through a user's matches.
type MatchListParams struct {
	Limit  int
	Offset int
}

// Validate clamps paging values into range.
func (p *MatchListParams) Validate() {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// MovieSummary is the movie information shown next to a match or alert.
type MovieSummary struct {
	Title      string   `json:"title"`
	Year       *int     `json:"year,omitempty"`
	ImdbRating *float64 `json:"imdb_rating,omitempty"`
	Genre      string   `json:"genre,omitempty"`
	Director   string   `json:"director,omitempty"`
	Actors     string   `json:"actors,omitempty"`
}

// ShowtimeSummary is the date and time of a screening.
type ShowtimeSummary struct {
	ShowDate string `json:"show_date"`
	ShowTime string `json:"show_time"`
}

// CinemaSummary names the cinema of a screening.
type CinemaSummary struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// MatchDetail is a stored match with its movie, showtime and cinema. A
// detail is nil when the referenced row no longer exists.
type MatchDetail struct {
	MatchResult
	Movie    *MovieSummary    `json:"movie"`
	Showtime *ShowtimeSummary `json:"showtime"`
	Cinema   *CinemaSummary   `json:"cinema"`
}
