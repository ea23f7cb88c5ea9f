package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kino-alert-matching-service/internal/metrics"
	"kino-alert-matching-service/internal/models"
)

// MatchStore lists matches awaiting notification and marks them done.
type MatchStore interface {
	ListUnnotified(ctx context.Context) ([]models.PendingMatch, error)
	MarkNotified(ctx context.Context, matchID int64) error
}

// AlertRecorder appends to the alert history.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, alert models.Alert) error
}

// PreferenceReader loads the notification toggles for a user.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error)
}

// DispatchReport summarises one dispatch pass.
type DispatchReport struct {
	Pending  int            `json:"pending"`
	Notified int            `json:"notified"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Sent     map[string]int `json:"sent"`
}

// Dispatcher sends alerts for unnotified matches. Each match is handled
// independently: a failure leaves it unnotified for the next pass.
type Dispatcher struct {
	store       MatchStore
	alerts      AlertRecorder
	prefs       PreferenceReader
	email       Channel
	push        Channel
	callTimeout time.Duration
}

// NewDispatcher creates a Dispatcher. A nil channel counts as a failed
// delivery for users who enabled it.
func NewDispatcher(store MatchStore, alerts AlertRecorder, prefs PreferenceReader, email, push Channel, callTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		store:       store,
		alerts:      alerts,
		prefs:       prefs,
		email:       email,
		push:        push,
		callTimeout: callTimeout,
	}
}

// DispatchPending notifies users about every unnotified match. It fails
// only when the pending matches cannot be listed.
func (d *Dispatcher) DispatchPending(ctx context.Context) (*DispatchReport, error) {
	report := &DispatchReport{Sent: map[string]int{}}

	listCtx, cancel := d.withTimeout(ctx)
	pending, err := d.store.ListUnnotified(listCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list unnotified matches: %w", err)
	}
	report.Pending = len(pending)

	if len(pending) == 0 {
		slog.Info("no new matches to notify about")
		return report, nil
	}

	for _, m := range pending {
		if ctx.Err() != nil {
			return report, fmt.Errorf("dispatch interrupted: %w", ctx.Err())
		}
		switch d.dispatchOne(ctx, m, report) {
		case outcomeNotified:
			report.Notified++
		case outcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	slog.Info("processed notifications for new matches",
		"pending", report.Pending,
		"notified", report.Notified,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

type outcome int

const (
	outcomeNotified outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (d *Dispatcher) dispatchOne(ctx context.Context, m models.PendingMatch, report *DispatchReport) outcome {
	log := slog.With("match_id", m.ID, "user_id", m.UserID)

	prefsCtx, cancel := d.withTimeout(ctx)
	prefs, err := d.prefs.GetPreferences(prefsCtx, m.UserID)
	cancel()
	if errors.Is(err, models.ErrPreferencesNotFound) {
		log.Debug("skipping match, user has no preferences")
		return outcomeSkipped
	}
	if err != nil {
		log.Error("failed to load preferences for notification", "error", err)
		return outcomeFailed
	}

	if !prefs.WantsNotifications() {
		return outcomeSkipped
	}

	payload := models.NotificationPayload{
		MovieTitle: m.MovieTitle,
		CinemaName: m.CinemaName,
		ShowDate:   m.ShowDate,
		ShowTime:   m.ShowTime,
		Score:      m.Score,
		Reasons:    m.Reasons,
	}

	var delivered []string
	if prefs.EmailNotificationsEnabled && d.send(ctx, d.email, ChannelEmail, m.UserID, payload) {
		delivered = append(delivered, ChannelEmail)
	}
	if prefs.PushNotificationsEnabled && d.send(ctx, d.push, ChannelPush, m.UserID, payload) {
		delivered = append(delivered, ChannelPush)
	}

	if len(delivered) == 0 {
		return outcomeFailed
	}

	markCtx, cancel := d.withTimeout(ctx)
	err = d.store.MarkNotified(markCtx, m.ID)
	cancel()
	if err != nil {
		log.Error("failed to mark match notified", "error", err)
		return outcomeFailed
	}
	metrics.MatchesNotified.Inc()

	for _, channel := range delivered {
		report.Sent[channel]++

		alertCtx, cancel := d.withTimeout(ctx)
		err := d.alerts.RecordAlert(alertCtx, models.Alert{
			UserID:     m.UserID,
			MovieID:    m.MovieID,
			ShowtimeID: m.ShowtimeID,
			AlertType:  channel,
			Status:     models.AlertStatusSent,
		})
		cancel()
		if err != nil {
			log.Error("failed to record alert history", "channel", channel, "error", err)
		}
	}

	return outcomeNotified
}

// SamplePayload is the sample alert sent by SendTest.
func SamplePayload() models.NotificationPayload {
	return models.NotificationPayload{
		MovieTitle: "Test Movie - Oppenheimer",
		CinemaName: "Helios Rzeszow",
		ShowDate:   "2024-01-15",
		ShowTime:   "20:00",
		Score:      0.85,
		Reasons:    []string{"Genres: Drama", "IMDb rating: 8.5/10", "Director: Christopher Nolan"},
	}
}

// SendTest sends SamplePayload through every channel the user enabled and
// reports which ones delivered. No match or alert history is written.
func (d *Dispatcher) SendTest(ctx context.Context, userID string) (*models.TestNotificationResult, error) {
	prefsCtx, cancel := d.withTimeout(ctx)
	prefs, err := d.prefs.GetPreferences(prefsCtx, userID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	result := &models.TestNotificationResult{Payload: SamplePayload()}
	if prefs.EmailNotificationsEnabled {
		result.Email = d.send(ctx, d.email, ChannelEmail, userID, result.Payload)
	}
	if prefs.PushNotificationsEnabled {
		result.Push = d.send(ctx, d.push, ChannelPush, userID, result.Payload)
	}

	slog.Info("test notification sent", "user_id", userID, "email", result.Email, "push", result.Push)
	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, name, userID string, payload models.NotificationPayload) bool {
	if ch == nil {
		slog.Warn("notification channel not configured", "channel", name, "user_id", userID)
		metrics.NotificationsSent.WithLabelValues(name, "failed").Inc()
		return false
	}

	sendCtx, cancel := d.withTimeout(ctx)
	defer cancel()

	if !ch.Send(sendCtx, userID, payload) {
		metrics.NotificationsSent.WithLabelValues(name, "failed").Inc()
		return false
	}
	metrics.NotificationsSent.WithLabelValues(name, "sent").Inc()
	return true
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.callTimeout)
}
