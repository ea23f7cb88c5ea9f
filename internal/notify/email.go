package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"text/template"
	"time"

	"golang.org/x/time/rate"

	"kino-alert-matching-service/internal/matching"
	"kino-alert-matching-service/internal/models"
)

// UserDirectory resolves a user's email address.
type UserDirectory interface {
	GetEmail(ctx context.Context, userID string) (string, error)
}

// MailSender sends one plain-text message.
type MailSender interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

var (
	subjectTmpl = template.Must(template.New("subject").Parse(
		`New movie for you: {{.MovieTitle}}`))

	bodyTmpl = template.Must(template.New("body").Funcs(template.FuncMap{
		"percent": matching.FormatScore,
	}).Parse(`Hi!

We found a movie you might like:

  {{.MovieTitle}}
  {{.CinemaName}}
  {{.ShowDate}} at {{.ShowTime}}
  Match: {{percent .Score}}
{{if .Reasons}}
Why it matches:
{{range .Reasons}}  - {{.}}
{{end}}{{end}}
Check the details in the app!
`))
)

// RenderEmail renders the subject and body for payload.
func RenderEmail(payload models.NotificationPayload) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := subjectTmpl.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := bodyTmpl.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, buf.String(), nil
}

// EmailChannel sends match alerts by email, throttled to a fixed rate.
// Address lookup and rendering happen before the sender is called, so a
// breaker around the sender only sees transport outcomes.
type EmailChannel struct {
	users   UserDirectory
	sender  MailSender
	limiter *rate.Limiter
}

// NewEmailChannel creates an email channel sending at most perSecond
// messages per second.
func NewEmailChannel(users UserDirectory, sender MailSender, perSecond float64) *EmailChannel {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &EmailChannel{
		users:   users,
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name returns the channel identifier.
func (c *EmailChannel) Name() string { return ChannelEmail }

// Send emails payload to the user's address.
func (c *EmailChannel) Send(ctx context.Context, userID string, payload models.NotificationPayload) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		slog.Warn("email throttle wait aborted", "user_id", userID, "error", err)
		return false
	}

	to, err := c.users.GetEmail(ctx, userID)
	if err == nil && strings.TrimSpace(to) == "" {
		err = models.ErrContactNotFound
	}
	if err != nil {
		slog.Error("failed to resolve email address", "user_id", userID, "error", err)
		return false
	}

	subject, body, err := RenderEmail(payload)
	if err != nil {
		slog.Error("failed to render email", "user_id", userID, "error", err)
		return false
	}

	if err := c.sender.SendMail(ctx, to, subject, body); err != nil {
		slog.Error("failed to send email", "user_id", userID, "error", err)
		return false
	}
	return true
}

// LogSender writes messages to the log instead of delivering them. It is
// used when no SMTP server is configured.
type LogSender struct{}

// SendMail logs the message and always succeeds.
func (LogSender) SendMail(_ context.Context, to, subject, body string) error {
	slog.Info("email notification (log only)", "to", to, "subject", subject, "body", body)
	return nil
}

// SMTPSender delivers mail through an SMTP server, upgrading to TLS when
// the server offers STARTTLS.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SendMail sends one plain-text message.
func (s *SMTPSender) SendMail(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))

	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("start TLS: %w", err)
		}
	}

	if s.Username != "" && s.Password != "" {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(s.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		var tpErr *textproto.Error
		if errors.As(err, &tpErr) && tpErr.Code >= 500 {
			return fmt.Errorf("%w: %s: %v", models.ErrInvalidRecipient, to, err)
		}
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	if _, err := w.Write([]byte(buildMessage(s.From, to, subject, body))); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

func buildMessage(from, to, subject, body string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: Kino Alert <%s>\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return msg.String()
}
