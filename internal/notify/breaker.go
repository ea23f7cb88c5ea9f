package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"kino-alert-matching-service/internal/metrics"
	"kino-alert-matching-service/internal/models"
)

// BreakerConfig configures a transport circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open-state duration before half-open
	FailureThreshold uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerConfig returns the breaker settings used for every transport.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// transportBreaker trips on consecutive transport failures. Errors that
// concern a single recipient count as successes: the transport answered,
// so other users must not be locked out by them.
type transportBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func newTransportBreaker(name string, cfg BreakerConfig) *transportBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrInvalidRecipient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("notification transport breaker state changed",
				"channel", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))

	return &transportBreaker{
		name: name,
		cb:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *transportBreaker) do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.NotificationsSent.WithLabelValues(b.name, "rejected").Inc()
	}
	return err
}

// State returns the current breaker state.
func (b *transportBreaker) State() gobreaker.State { return b.cb.State() }

// BreakerMailSender guards a MailSender with a circuit breaker. While the
// breaker is open, SendMail fails fast without contacting the server.
type BreakerMailSender struct {
	*transportBreaker
	next MailSender
}

// WithMailBreaker wraps next in a circuit breaker.
func WithMailBreaker(next MailSender, cfg BreakerConfig) *BreakerMailSender {
	return &BreakerMailSender{
		transportBreaker: newTransportBreaker(ChannelEmail, cfg),
		next:             next,
	}
}

// SendMail delivers through the wrapped sender unless the breaker is open.
func (b *BreakerMailSender) SendMail(ctx context.Context, to, subject, body string) error {
	return b.do(func() error {
		return b.next.SendMail(ctx, to, subject, body)
	})
}

// BreakerPublisher guards a PushPublisher with a circuit breaker.
type BreakerPublisher struct {
	*transportBreaker
	next PushPublisher
}

// WithPushBreaker wraps next in a circuit breaker.
func WithPushBreaker(next PushPublisher, cfg BreakerConfig) *BreakerPublisher {
	return &BreakerPublisher{
		transportBreaker: newTransportBreaker(ChannelPush, cfg),
		next:             next,
	}
}

// PublishPushAlert publishes through the wrapped publisher unless the
// breaker is open.
func (b *BreakerPublisher) PublishPushAlert(userID string, data []byte) error {
	return b.do(func() error {
		return b.next.PublishPushAlert(userID, data)
	})
}
