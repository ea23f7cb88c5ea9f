package repository

import (
	"database/sql"

	"kino-alert-matching-service/internal/models"
)

// detailColumns holds the LEFT JOINed movie, showtime and cinema columns
// of a listing row. Every column is nullable because the referenced rows
// may have been removed from the catalog.
type detailColumns struct {
	movieTitle sql.NullString
	movieYear  sql.NullInt64
	rating     sql.NullFloat64
	genre      sql.NullString
	director   sql.NullString
	actors     sql.NullString
	showDate   sql.NullString
	showTime   sql.NullString
	cinemaName sql.NullString
	cinemaCity sql.NullString
}

const detailSelect = `
	m.title, m.year, m.imdb_rating, m.genre, m.director, m.actors,
	to_char(s.show_date, 'YYYY-MM-DD'), to_char(s.show_time, 'HH24:MI'),
	c.name, c.city`

const detailJoins = `
	LEFT JOIN movies m ON m.id = %[1]s.movie_id
	LEFT JOIN showtimes s ON s.id = %[1]s.showtime_id
	LEFT JOIN cinemas c ON c.id = s.cinema_id`

func (d *detailColumns) dest() []any {
	return []any{
		&d.movieTitle, &d.movieYear, &d.rating, &d.genre, &d.director, &d.actors,
		&d.showDate, &d.showTime,
		&d.cinemaName, &d.cinemaCity,
	}
}

func (d *detailColumns) movie() *models.MovieSummary {
	if !d.movieTitle.Valid {
		return nil
	}
	m := &models.MovieSummary{
		Title:    d.movieTitle.String,
		Genre:    d.genre.String,
		Director: d.director.String,
		Actors:   d.actors.String,
	}
	if d.movieYear.Valid {
		year := int(d.movieYear.Int64)
		m.Year = &year
	}
	if d.rating.Valid {
		rating := d.rating.Float64
		m.ImdbRating = &rating
	}
	return m
}

func (d *detailColumns) showtime() *models.ShowtimeSummary {
	if !d.showDate.Valid {
		return nil
	}
	return &models.ShowtimeSummary{ShowDate: d.showDate.String, ShowTime: d.showTime.String}
}

func (d *detailColumns) cinema() *models.CinemaSummary {
	if !d.cinemaName.Valid {
		return nil
	}
	return &models.CinemaSummary{Name: d.cinemaName.String, City: d.cinemaCity.String}
}
