package matching

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kino-alert-matching-service/internal/metrics"
)

// RunReport summarises one batch run.
type RunReport struct {
	RunID           string        `json:"run_id"`
	UsersAttempted  int           `json:"users_attempted"`
	UsersFailed     int           `json:"users_failed"`
	CandidatesFound int           `json:"candidates_found"`
	MatchesInserted int           `json:"matches_inserted"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration_ns"`
}

// Runner runs find-and-persist for every user with a preference record.
// Users are independent units of work; one user's failure never stops the
// batch.
type Runner struct {
	prefs       PreferenceReader
	finder      *Finder
	persister   *Persister
	concurrency int
	callTimeout time.Duration
}

// NewRunner creates a Runner. A concurrency of 1 processes users
// sequentially.
func NewRunner(prefs PreferenceReader, finder *Finder, persister *Persister, concurrency int, callTimeout time.Duration) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		prefs:       prefs,
		finder:      finder,
		persister:   persister,
		concurrency: concurrency,
		callTimeout: callTimeout,
	}
}

// RunForAllUsers processes every user. It fails only when the users
// cannot be enumerated or ctx is cancelled before all users were attempted.
func (r *Runner) RunForAllUsers(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := slog.With("run_id", report.RunID)

	userIDs, err := withTimeout(ctx, r.callTimeout, r.prefs.ListUserIDs)
	if err != nil {
		metrics.MatchingRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("list users with preferences: %w", err)
	}
	if len(userIDs) == 0 {
		log.Info("no users with preferences found")
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			candidates, inserted, err := r.runForUser(ctx, userID)

			mu.Lock()
			defer mu.Unlock()
			report.UsersAttempted++
			report.CandidatesFound += candidates
			report.MatchesInserted += inserted
			if err != nil {
				report.UsersFailed++
				metrics.UsersProcessed.WithLabelValues("failed").Inc()
				log.Error("matching failed for user", "user_id", userID, "error", err)
				return nil
			}
			metrics.UsersProcessed.WithLabelValues("ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(report.StartedAt)
	metrics.MatchingRunDuration.Observe(report.Duration.Seconds())

	if err := ctx.Err(); err != nil && report.UsersAttempted < len(userIDs) {
		metrics.MatchingRuns.WithLabelValues("interrupted").Inc()
		return report, fmt.Errorf("matching run interrupted after %d of %d users: %w",
			report.UsersAttempted, len(userIDs), err)
	}

	metrics.MatchingRuns.WithLabelValues("completed").Inc()
	log.Info("processed matching for all users",
		"users", report.UsersAttempted,
		"failed", report.UsersFailed,
		"candidates", report.CandidatesFound,
		"inserted", report.MatchesInserted,
		"duration", report.Duration,
	)
	return report, nil
}

// runForUser is the per-user failure boundary.
func (r *Runner) runForUser(ctx context.Context, userID string) (candidates, inserted int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	matches := r.finder.FindMatches(ctx, userID)
	candidates = len(matches)
	metrics.CandidatesFound.Add(float64(candidates))

	inserted, err = r.persister.Persist(ctx, userID, matches)
	metrics.MatchesInserted.Add(float64(inserted))
	if err != nil {
		return candidates, inserted, fmt.Errorf("persist matches: %w", err)
	}

	slog.Debug("saved matches for user", "user_id", userID, "candidates", candidates, "inserted", inserted)
	return candidates, inserted, nil
}
