package supervisor

import (
	"context"
	"log/slog"
	"time"
)

// IntervalJob triggers fn every interval until its context is cancelled.
// Runs never overlap: a tick that arrives while fn is running is dropped.
type IntervalJob struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// NewIntervalJob creates a job named name.
func NewIntervalJob(name string, interval time.Duration, fn func(ctx context.Context) error) *IntervalJob {
	return &IntervalJob{name: name, interval: interval, fn: fn}
}

// Serve runs the job loop. A failing run is logged and the loop continues.
func (j *IntervalJob) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.Info("scheduled job started", "job", j.name, "interval", j.interval)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := j.fn(ctx); err != nil {
				slog.Error("scheduled job failed", "job", j.name, "error", err)
				continue
			}
			slog.Info("scheduled job completed", "job", j.name, "duration", time.Since(start))
		}
	}
}

func (j *IntervalJob) String() string {
	return j.name
}
