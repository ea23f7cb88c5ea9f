package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"kino-alert-matching-service/internal/models"
)

type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Exists reports whether a match with this identity is already stored.
func (r *MatchRepository) Exists(ctx context.Context, userID string, movieID, showtimeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_matches
			WHERE user_id = $1 AND movie_id = $2 AND showtime_id = $3
		)
	`, userID, movieID, showtimeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check match: %w", err)
	}
	return exists, nil
}

// Insert stores a new match. An existing row is left untouched and
// models.ErrDuplicateMatch is returned.
func (r *MatchRepository) Insert(ctx context.Context, m models.MatchResult) error {
	reasons := m.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_matches (user_id, movie_id, showtime_id, match_score, reasons)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, movie_id, showtime_id) DO NOTHING
	`, m.UserID, m.MovieID, m.ShowtimeID, m.Score, pq.Array(reasons))
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrDuplicateMatch
	}
	return nil
}

// ListForUser returns a page of the user's matches, best first, with the
// movie, showtime and cinema each refers to.
func (r *MatchRepository) ListForUser(ctx context.Context, userID string, params models.MatchListParams) ([]models.MatchDetail, error) {
	params.Validate()

	query := `
		SELECT um.id, um.user_id, um.movie_id, um.showtime_id, um.match_score, um.reasons,
			um.is_notified, um.created_at,` + detailSelect + `
		FROM user_matches um` + fmt.Sprintf(detailJoins, "um") + `
		WHERE um.user_id = $1
		ORDER BY um.match_score DESC, um.created_at DESC, um.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []models.MatchDetail{}
	for rows.Next() {
		var (
			m       models.MatchDetail
			details detailColumns
		)
		dest := append([]any{
			&m.ID, &m.UserID, &m.MovieID, &m.ShowtimeID, &m.Score,
			pq.Array(&m.Reasons), &m.IsNotified, &m.CreatedAt,
		}, details.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Movie, m.Showtime, m.Cinema = details.movie(), details.showtime(), details.cinema()
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListUnnotified returns every match not yet notified, newest first,
// joined with what a notification needs. Matches whose movie, showtime or
// cinema is gone are left out.
func (r *MatchRepository) ListUnnotified(ctx context.Context) ([]models.PendingMatch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT um.id, um.user_id, um.movie_id, um.showtime_id, um.match_score, um.reasons,
			um.is_notified, um.created_at,
			m.title, c.name, to_char(s.show_date, 'YYYY-MM-DD'), to_char(s.show_time, 'HH24:MI')
		FROM user_matches um
		JOIN movies m ON m.id = um.movie_id
		JOIN showtimes s ON s.id = um.showtime_id
		JOIN cinemas c ON c.id = s.cinema_id
		WHERE NOT um.is_notified
		ORDER BY um.created_at DESC, um.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unnotified matches: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingMatch
	for rows.Next() {
		var p models.PendingMatch
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.MovieID, &p.ShowtimeID, &p.Score, pq.Array(&p.Reasons),
			&p.IsNotified, &p.CreatedAt,
			&p.MovieTitle, &p.CinemaName, &p.ShowDate, &p.ShowTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending match: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkNotified flags a match as notified. Marking twice is harmless.
func (r *MatchRepository) MarkNotified(ctx context.Context, matchID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_matches SET is_notified = TRUE WHERE id = $1 AND NOT is_notified
	`, matchID)
	if err != nil {
		return fmt.Errorf("failed to mark match notified: %w", err)
	}
	return nil
}
