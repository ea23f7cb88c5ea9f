// Package notify delivers alerts for new matches and records the outcome.
//
// Delivery is best effort: a channel reports success as a bool, and a
// failed or skipped match stays unnotified so a later dispatch retries it.
package notify

import (
	"context"

	"kino-alert-matching-service/internal/models"
)

// Channel names, also used as alert types in the alert history.
const (
	ChannelEmail = models.AlertTypeEmail
	ChannelPush  = models.AlertTypePush
)

// Channel delivers one notification. Send never returns an error; it logs
// failures and reports false.
type Channel interface {
	Name() string
	Send(ctx context.Context, userID string, payload models.NotificationPayload) bool
}
