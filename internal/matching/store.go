package matching

import (
	"context"
	"time"

	"kino-alert-matching-service/internal/models"
)

// PreferenceReader reads preference records. GetPreferences returns
// models.ErrPreferencesNotFound when the user has none.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// CatalogReader is the read-only view of cinemas and upcoming showtimes.
type CatalogReader interface {
	GetCinemas(ctx context.Context) ([]models.Cinema, error)
	GetUpcomingShowtimes(ctx context.Context, cinemaIDs []int64, fromDate time.Time) ([]models.ShowtimeCandidate, error)
}

// MatchStore records matches. Insert returns models.ErrDuplicateMatch when
// the identity triple is already present.
type MatchStore interface {
	Exists(ctx context.Context, userID string, movieID, showtimeID int64) (bool, error)
	Insert(ctx context.Context, match models.MatchResult) error
}

// withTimeout runs fn under a child context bounded by d.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
