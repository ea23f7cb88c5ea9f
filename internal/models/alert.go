package models

import "time"

// Alert types recorded in the alert history.
const (
	AlertTypeEmail = "email"
	AlertTypePush  = "push"

	AlertStatusSent = "sent"
)

// NotificationPayload is what a channel delivers for one match.
type NotificationPayload struct {
	MovieTitle string   `json:"movie_title"`
	CinemaName string   `json:"cinema_name"`
	ShowDate   string   `json:"show_date"`
	ShowTime   string   `json:"show_time"`
	Score      float64  `json:"match_score"`
	Reasons    []string `json:"reasons"`
}

// Alert is one successful delivery recorded in the alert history.
type Alert struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	MovieID    int64     `json:"movie_id"`
	ShowtimeID int64     `json:"showtime_id"`
	AlertType  string    `json:"alert_type"`
	Status     string    `json:"status"`
	SentAt     time.Time `json:"sent_at"`
}

// AlertDetail is an alert history entry with the movie and screening it
// was about.
type AlertDetail struct {
	Alert
	Movie    *MovieSummary    `json:"movie"`
	Showtime *ShowtimeSummary `json:"showtime"`
	Cinema   *CinemaSummary   `json:"cinema"`
}

// TestNotificationResult reports which channels delivered a test alert.
type TestNotificationResult struct {
	Email   bool                `json:"email"`
	Push    bool                `json:"push"`
	Payload NotificationPayload `json:"payload"`
}
