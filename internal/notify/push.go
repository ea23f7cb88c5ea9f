package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"kino-alert-matching-service/internal/models"
)

// PushPublisher publishes a raw push alert for a user.
type PushPublisher interface {
	PublishPushAlert(userID string, data []byte) error
}

// PushMessage is the JSON document published for a push alert.
type PushMessage struct {
	Title string                     `json:"title"`
	Body  string                     `json:"body"`
	Data  models.NotificationPayload `json:"data"`
}

// PushChannel publishes match alerts to the message bus, where device
// gateways pick them up.
type PushChannel struct {
	pub PushPublisher
}

// NewPushChannel creates a push channel over pub.
func NewPushChannel(pub PushPublisher) *PushChannel {
	return &PushChannel{pub: pub}
}

// Name returns the channel identifier.
func (c *PushChannel) Name() string { return ChannelPush }

// Send publishes payload for userID.
func (c *PushChannel) Send(ctx context.Context, userID string, payload models.NotificationPayload) bool {
	if ctx.Err() != nil {
		return false
	}

	data, err := json.Marshal(PushMessage{
		Title: payload.MovieTitle,
		Body:  payload.CinemaName + " - " + payload.ShowDate + " " + payload.ShowTime,
		Data:  payload,
	})
	if err != nil {
		slog.Error("failed to encode push alert", "user_id", userID, "error", err)
		return false
	}

	if err := c.pub.PublishPushAlert(userID, data); err != nil {
		slog.Error("failed to publish push alert", "user_id", userID, "error", err)
		return false
	}
	return true
}
