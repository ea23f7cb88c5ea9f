package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kino-alert-matching-service/internal/models"
)

// Persister records candidates as matches. Existing matches are never
// overwritten, so re-running over the same candidates is a no-op.
type Persister struct {
	store       MatchStore
	callTimeout time.Duration
}

// NewPersister creates a Persister over store.
func NewPersister(store MatchStore, callTimeout time.Duration) *Persister {
	return &Persister{store: store, callTimeout: callTimeout}
}

// Persist inserts every candidate not yet recorded for userID and returns
// how many rows were added. It stops at the first store failure.
func (p *Persister) Persist(ctx context.Context, userID string, candidates []models.MatchCandidate) (int, error) {
	inserted := 0
	for _, c := range candidates {
		exists, err := withTimeout(ctx, p.callTimeout, func(ctx context.Context) (bool, error) {
			return p.store.Exists(ctx, userID, c.MovieID, c.ShowtimeID)
		})
		if err != nil {
			return inserted, fmt.Errorf("check match movie=%d showtime=%d: %w", c.MovieID, c.ShowtimeID, err)
		}
		if exists {
			continue
		}

		_, err = withTimeout(ctx, p.callTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.store.Insert(ctx, models.MatchResult{
				UserID:     userID,
				MovieID:    c.MovieID,
				ShowtimeID: c.ShowtimeID,
				Score:      c.Score,
				Reasons:    c.Reasons,
			})
		})
		if errors.Is(err, models.ErrDuplicateMatch) {
			// Lost a race with a concurrent run
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("insert match movie=%d showtime=%d: %w", c.MovieID, c.ShowtimeID, err)
		}
		inserted++
	}
	return inserted, nil
}
