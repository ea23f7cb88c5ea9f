package service

import (
	"context"

	"kino-alert-matching-service/internal/matching"
	"kino-alert-matching-service/internal/models"
	"kino-alert-matching-service/internal/notify"
)

// alertHistoryLimit caps the alert listing to the most recent entries.
const alertHistoryLimit = 50

// MatchReader lists stored matches.
type MatchReader interface {
	ListForUser(ctx context.Context, userID string, params models.MatchListParams) ([]models.MatchDetail, error)
}

// AlertReader lists alert history.
type AlertReader interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.AlertDetail, error)
}

// MatchService exposes the matching and notification passes and the
// read side of their results.
type MatchService struct {
	runner     *matching.Runner
	finder     *matching.Finder
	dispatcher *notify.Dispatcher
	matches    MatchReader
	alerts     AlertReader
}

func NewMatchService(runner *matching.Runner, finder *matching.Finder, dispatcher *notify.Dispatcher, matches MatchReader, alerts AlertReader) *MatchService {
	return &MatchService{
		runner:     runner,
		finder:     finder,
		dispatcher: dispatcher,
		matches:    matches,
		alerts:     alerts,
	}
}

// RunMatching runs the batch matching pass for every user.
func (s *MatchService) RunMatching(ctx context.Context) (*matching.RunReport, error) {
	return s.runner.RunForAllUsers(ctx)
}

// DispatchNotifications notifies users about unnotified matches.
func (s *MatchService) DispatchNotifications(ctx context.Context) (*notify.DispatchReport, error) {
	return s.dispatcher.DispatchPending(ctx)
}

// PreviewMatches computes the user's current candidates without storing
// them.
func (s *MatchService) PreviewMatches(ctx context.Context, userID string) []models.MatchCandidate {
	return s.finder.FindMatches(ctx, userID)
}

// ListMatches returns a page of the user's stored matches.
func (s *MatchService) ListMatches(ctx context.Context, userID string, params models.MatchListParams) ([]models.MatchDetail, error) {
	params.Validate()
	return s.matches.ListForUser(ctx, userID, params)
}

// ListAlerts returns the user's most recent alerts.
func (s *MatchService) ListAlerts(ctx context.Context, userID string) ([]models.AlertDetail, error) {
	return s.alerts.ListForUser(ctx, userID, alertHistoryLimit)
}

// SendTestNotification sends a sample alert through the user's enabled
// channels.
func (s *MatchService) SendTestNotification(ctx context.Context, userID string) (*models.TestNotificationResult, error) {
	return s.dispatcher.SendTest(ctx, userID)
}
