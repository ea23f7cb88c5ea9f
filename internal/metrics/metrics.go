// Package metrics provides Prometheus instrumentation for the matching
// service: batch runs, per-user outcomes, persisted matches and
// notification deliveries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MatchingRuns counts batch matching runs, labeled by status:
	// "completed", "failed" or "interrupted".
	MatchingRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kino_matching_runs_total",
		Help: "Total number of batch matching runs",
	}, []string{"status"})

	// MatchingRunDuration records how long a batch run takes.
	MatchingRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kino_matching_run_duration_seconds",
		Help:    "Duration of batch matching runs",
		Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
	})

	// UsersProcessed counts per-user passes, labeled by result: "ok" or "failed".
	UsersProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kino_matching_users_total",
		Help: "Total number of per-user matching passes",
	}, []string{"result"})

	// CandidatesFound counts candidates that cleared the minimum score.
	CandidatesFound = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kino_matching_candidates_total",
		Help: "Total number of candidates above the minimum score",
	})

	// MatchesInserted counts newly persisted matches.
	MatchesInserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kino_matching_matches_inserted_total",
		Help: "Total number of newly persisted matches",
	})

	// NotificationsSent counts channel deliveries, labeled by channel and
	// result: "sent", "failed" or "rejected" (open circuit).
	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kino_notifications_total",
		Help: "Total number of notification delivery attempts",
	}, []string{"channel", "result"})

	// MatchesNotified counts matches flipped to notified.
	MatchesNotified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kino_matches_notified_total",
		Help: "Total number of matches marked as notified",
	})

	// CircuitBreakerState tracks channel breaker state (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kino_notify_circuit_breaker_state",
		Help: "Notification channel circuit breaker state",
	}, []string{"channel"})
)

func init() {
	prometheus.MustRegister(
		MatchingRuns,
		MatchingRunDuration,
		UsersProcessed,
		CandidatesFound,
		MatchesInserted,
		NotificationsSent,
		MatchesNotified,
		CircuitBreakerState,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
