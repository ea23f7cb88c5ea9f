package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"kino-alert-matching-service/internal/models"
)

type PreferenceRepository struct {
	db *sql.DB
}

func NewPreferenceRepository(db *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

const preferenceColumns = `user_id, favorite_cinemas, favorite_cities, genres, people, min_imdb,
	alerts_enabled, email_notifications, push_notifications, updated_at`

// GetPreferences returns a user's preference record, or
// models.ErrPreferencesNotFound.
func (r *PreferenceRepository) GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+preferenceColumns+`
		FROM user_prefs WHERE user_id = $1
	`, userID)

	pref, err := scanPreference(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return pref, nil
}

// UpsertPreferences replaces the user's preference record.
func (r *PreferenceRepository) UpsertPreferences(ctx context.Context, rec models.PreferenceRecord) (*models.PreferenceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO user_prefs (user_id, favorite_cinemas, favorite_cities, genres, people, min_imdb,
			alerts_enabled, email_notifications, push_notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			favorite_cinemas = EXCLUDED.favorite_cinemas,
			favorite_cities = EXCLUDED.favorite_cities,
			genres = EXCLUDED.genres,
			people = EXCLUDED.people,
			min_imdb = EXCLUDED.min_imdb,
			alerts_enabled = EXCLUDED.alerts_enabled,
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			updated_at = NOW()
		RETURNING `+preferenceColumns,
		rec.UserID, pq.Array(rec.FavoriteCinemaIDs), pq.Array(rec.FavoriteCities),
		pq.Array(rec.Genres), pq.Array(rec.NotablePeople), rec.MinImdbRating,
		rec.AlertsEnabled, rec.EmailNotificationsEnabled, rec.PushNotificationsEnabled,
	)

	pref, err := scanPreference(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return pref, nil
}

// ListUserIDs returns every user with a preference record.
func (r *PreferenceRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_prefs ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanPreference normalises a row: NULL minimum rating becomes the
// default and blank array entries are dropped.
func scanPreference(row *sql.Row) (*models.PreferenceRecord, error) {
	var (
		pref      models.PreferenceRecord
		cinemaIDs pq.Int64Array
		minImdb   sql.NullFloat64
	)
	err := row.Scan(
		&pref.UserID, &cinemaIDs, pq.Array(&pref.FavoriteCities),
		pq.Array(&pref.Genres), pq.Array(&pref.NotablePeople), &minImdb,
		&pref.AlertsEnabled, &pref.EmailNotificationsEnabled, &pref.PushNotificationsEnabled,
		&pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	pref.FavoriteCinemaIDs = []int64(cinemaIDs)
	if pref.FavoriteCinemaIDs == nil {
		pref.FavoriteCinemaIDs = []int64{}
	}
	pref.FavoriteCities = models.CleanStrings(pref.FavoriteCities)
	pref.Genres = models.CleanStrings(pref.Genres)
	pref.NotablePeople = models.CleanStrings(pref.NotablePeople)

	pref.MinImdbRating = models.DefaultMinImdbRating
	if minImdb.Valid {
		pref.MinImdbRating = minImdb.Float64
	}
	return &pref, nil
}
