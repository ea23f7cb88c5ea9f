package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"kino-alert-matching-service/internal/models"
)

// CatalogRepository reads cinemas, movies and showtimes. The catalog is
// populated by the ingestion pipeline; this service never writes to it.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetCinemas returns all cinemas.
func (r *CatalogRepository) GetCinemas(ctx context.Context) ([]models.Cinema, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, city FROM cinemas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cinemas: %w", err)
	}
	defer rows.Close()

	var cinemas []models.Cinema
	for rows.Next() {
		var c models.Cinema
		if err := rows.Scan(&c.ID, &c.Name, &c.City); err != nil {
			return nil, fmt.Errorf("failed to scan cinema: %w", err)
		}
		cinemas = append(cinemas, c)
	}
	return cinemas, rows.Err()
}

// GetUpcomingShowtimes returns showtimes at the given cinemas from the
// calendar date of fromDate onwards, joined with their movies and ordered
// by date then time.
func (r *CatalogRepository) GetUpcomingShowtimes(ctx context.Context, cinemaIDs []int64, fromDate time.Time) ([]models.ShowtimeCandidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.movie_id, s.cinema_id,
			to_char(s.show_date, 'YYYY-MM-DD'), to_char(s.show_time, 'HH24:MI'),
			m.title, m.imdb_rating, COALESCE(m.genre, ''), m.director, m.actors
		FROM showtimes s
		JOIN movies m ON m.id = s.movie_id
		WHERE s.cinema_id = ANY($1) AND s.show_date >= $2::date
		ORDER BY s.show_date, s.show_time, s.id
	`, pq.Array(cinemaIDs), fromDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query showtimes: %w", err)
	}
	defer rows.Close()

	var showtimes []models.ShowtimeCandidate
	for rows.Next() {
		var (
			st       models.ShowtimeCandidate
			rating   sql.NullFloat64
			director sql.NullString
			actors   sql.NullString
		)
		if err := rows.Scan(
			&st.ShowtimeID, &st.MovieID, &st.CinemaID, &st.ShowDate, &st.ShowTime,
			&st.Movie.Title, &rating, &st.Movie.Genres, &director, &actors,
		); err != nil {
			return nil, fmt.Errorf("failed to scan showtime: %w", err)
		}
		if rating.Valid {
			st.Movie.ImdbRating = &rating.Float64
		}
		if director.Valid {
			st.Movie.Director = &director.String
		}
		if actors.Valid {
			st.Movie.Actors = &actors.String
		}
		showtimes = append(showtimes, st)
	}
	return showtimes, rows.Err()
}
