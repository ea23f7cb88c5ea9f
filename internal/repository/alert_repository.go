package repository

import (
	"context"
	"database/sql"
	"fmt"

	"kino-alert-matching-service/internal/models"
)

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// RecordAlert appends a delivery to the alert history.
func (r *AlertRepository) RecordAlert(ctx context.Context, a models.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_history (user_id, movie_id, showtime_id, alert_type, status)
		VALUES ($1, $2, $3, $4, $5)
	`, a.UserID, a.MovieID, a.ShowtimeID, a.AlertType, a.Status)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// ListForUser returns the user's most recent alerts with the movie and
// screening each was about.
func (r *AlertRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.AlertDetail, error) {
	query := `
		SELECT ah.id, ah.user_id, COALESCE(ah.movie_id, 0), COALESCE(ah.showtime_id, 0),
			ah.alert_type, ah.status, ah.sent_at,` + detailSelect + `
		FROM alert_history ah` + fmt.Sprintf(detailJoins, "ah") + `
		WHERE ah.user_id = $1
		ORDER BY ah.sent_at DESC, ah.id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.AlertDetail{}
	for rows.Next() {
		var (
			a       models.AlertDetail
			details detailColumns
		)
		dest := append([]any{
			&a.ID, &a.UserID, &a.MovieID, &a.ShowtimeID, &a.AlertType, &a.Status, &a.SentAt,
		}, details.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Movie, a.Showtime, a.Cinema = details.movie(), details.showtime(), details.cinema()
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
