package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"kino-alert-matching-service/internal/models"
)

// DefaultMinScore lets a single strong term, such as the rating term alone,
// surface a result.
const DefaultMinScore = 0.3

// Finder computes ranked match candidates for one user.
type Finder struct {
	prefs       PreferenceReader
	catalog     CatalogReader
	minScore    float64
	callTimeout time.Duration
	now         func() time.Time
}

// NewFinder creates a Finder. Each collaborator call is bounded by
// callTimeout.
func NewFinder(prefs PreferenceReader, catalog CatalogReader, minScore float64, callTimeout time.Duration) *Finder {
	return &Finder{
		prefs:       prefs,
		catalog:     catalog,
		minScore:    minScore,
		callTimeout: callTimeout,
		now:         time.Now,
	}
}

// FindMatches returns the user's candidates sorted by score descending.
// Missing preferences or catalog data yield an empty list, and so does any
// I/O failure, which is logged instead of returned.
func (f *Finder) FindMatches(ctx context.Context, userID string) []models.MatchCandidate {
	matches, err := f.find(ctx, userID)
	if err != nil {
		slog.Error("failed to find matches", "user_id", userID, "error", err)
		return []models.MatchCandidate{}
	}
	return matches
}

func (f *Finder) find(ctx context.Context, userID string) ([]models.MatchCandidate, error) {
	matches := []models.MatchCandidate{}

	prefs, err := withTimeout(ctx, f.callTimeout, func(ctx context.Context) (*models.PreferenceRecord, error) {
		return f.prefs.GetPreferences(ctx, userID)
	})
	if errors.Is(err, models.ErrPreferencesNotFound) {
		slog.Debug("no preferences found", "user_id", userID)
		return matches, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	cinemas, err := withTimeout(ctx, f.callTimeout, f.catalog.GetCinemas)
	if err != nil {
		return nil, fmt.Errorf("load cinemas: %w", err)
	}
	if len(cinemas) == 0 {
		slog.Debug("no cinemas found", "user_id", userID)
		return matches, nil
	}

	cinemaIDs := make([]int64, len(cinemas))
	for i, c := range cinemas {
		cinemaIDs[i] = c.ID
	}

	today := f.now().UTC()
	showtimes, err := withTimeout(ctx, f.callTimeout, func(ctx context.Context) ([]models.ShowtimeCandidate, error) {
		return f.catalog.GetUpcomingShowtimes(ctx, cinemaIDs, today)
	})
	if err != nil {
		return nil, fmt.Errorf("load showtimes: %w", err)
	}
	if len(showtimes) == 0 {
		slog.Debug("no showtimes found", "user_id", userID)
		return matches, nil
	}

	for _, st := range showtimes {
		// Favorite cinemas are a hard filter, not a scoring term
		if !prefs.HasFavoriteCinema(st.CinemaID) {
			continue
		}

		score, reasons := Score(st.Movie, *prefs)
		if score < f.minScore {
			continue
		}

		matches = append(matches, models.MatchCandidate{
			MovieID:    st.MovieID,
			ShowtimeID: st.ShowtimeID,
			CinemaID:   st.CinemaID,
			MovieTitle: st.Movie.Title,
			ShowDate:   st.ShowDate,
			ShowTime:   st.ShowTime,
			Score:      score,
			Reasons:    reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}
