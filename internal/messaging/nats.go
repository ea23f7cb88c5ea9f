// Package messaging wraps the NATS connection used to fan out push alerts.
package messaging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/nats-io/nats.go"

	"kino-alert-matching-service/internal/models"
)

// SubjectPushAlert is the subject prefix for push alerts; the user ID is
// appended as the last token.
const SubjectPushAlert = "kino.alerts.push"

// Config holds NATS connection settings.
type Config struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	MaxReconnects int // -1 for infinite
}

// DefaultConfig returns connection defaults for url.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:           url,
		Name:          name,
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// Client wraps a NATS connection with helpers for the alert subjects.
type Client struct {
	conn *nats.Conn
}

// NewClient connects to NATS. It returns an error if the initial
// connection fails.
func NewClient(cfg Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	slog.Info("connected to NATS", "url", nc.ConnectedUrl())

	return &Client{conn: nc}, nil
}

// PushAlertSubject returns the subject push alerts for userID go to. The
// user ID must fit in a single subject token, so IDs that are empty or
// contain dots, wildcards or whitespace are rejected.
func PushAlertSubject(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, ".*>") || strings.IndexFunc(userID, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: user id %q is not a valid subject token", models.ErrInvalidRecipient, userID)
	}
	return SubjectPushAlert + "." + userID, nil
}

// Publish sends data to subject and flushes so delivery failures surface
// to the caller.
func (c *Client) Publish(subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	if err := c.conn.FlushTimeout(2 * time.Second); err != nil {
		return fmt.Errorf("nats flush %s: %w", subject, err)
	}
	return nil
}

// PublishPushAlert publishes a push alert for userID.
func (c *Client) PublishPushAlert(userID string, data []byte) error {
	subject, err := PushAlertSubject(userID)
	if err != nil {
		return err
	}
	return c.Publish(subject, data)
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Close drains the connection, flushing pending publishes.
func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		slog.Warn("nats connection drain failed", "error", err)
	}
}
