package models

import (
	"strings"
	"time"
)

// DefaultMinImdbRating applies when a preference record carries no
// minimum rating.
const DefaultMinImdbRating = 7.0

// PreferenceRecord is a user's stored matching criteria. Empty sets mean
// "no constraint", never "match nothing".
type PreferenceRecord struct {
	UserID                    string    `json:"user_id"`
	FavoriteCinemaIDs         []int64   `json:"favorite_cinemas"`
	FavoriteCities            []string  `json:"favorite_cities"`
	Genres                    []string  `json:"genres"`
	NotablePeople             []string  `json:"people"`
	MinImdbRating             float64   `json:"min_imdb"`
	AlertsEnabled             bool      `json:"alerts_enabled"`
	EmailNotificationsEnabled bool      `json:"email_notifications"`
	PushNotificationsEnabled  bool      `json:"push_notifications"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// HasFavoriteCinema reports whether cinemaID passes the favorite-cinema
// filter. An empty favorite set admits every cinema.
func (p *PreferenceRecord) HasFavoriteCinema(cinemaID int64) bool {
	if len(p.FavoriteCinemaIDs) == 0 {
		return true
	}
	for _, id := range p.FavoriteCinemaIDs {
		if id == cinemaID {
			return true
		}
	}
	return false
}

// WantsNotifications reports whether any delivery channel is enabled.
func (p *PreferenceRecord) WantsNotifications() bool {
	return p.EmailNotificationsEnabled || p.PushNotificationsEnabled
}

// SetPreferenceRequest is the request body for saving preferences. The
// record is replaced wholesale on every save.
type SetPreferenceRequest struct {
	FavoriteCinemaIDs  []int64  `json:"favorite_cinemas" validate:"max=50,dive,gt=0"`
	FavoriteCities     []string `json:"favorite_cities" validate:"max=50,dive,max=100"`
	Genres             []string `json:"genres" validate:"max=50,dive,max=100"`
	NotablePeople      []string `json:"people" validate:"max=50,dive,max=100"`
	MinImdbRating      *float64 `json:"min_imdb" validate:"omitempty,gte=0,lte=10"`
	AlertsEnabled      *bool    `json:"alerts_enabled"`
	EmailNotifications *bool    `json:"email_notifications"`
	PushNotifications  *bool    `json:"push_notifications"`
}

// ToRecord converts the request into a normalised record for userID.
func (r SetPreferenceRequest) ToRecord(userID string) PreferenceRecord {
	rec := PreferenceRecord{
		UserID:            userID,
		FavoriteCinemaIDs: dedupeIDs(r.FavoriteCinemaIDs),
		FavoriteCities:    CleanStrings(r.FavoriteCities),
		Genres:            CleanStrings(r.Genres),
		NotablePeople:     CleanStrings(r.NotablePeople),
		MinImdbRating:     DefaultMinImdbRating,
		AlertsEnabled:     true,
	}
	if r.MinImdbRating != nil {
		rec.MinImdbRating = *r.MinImdbRating
	}
	if r.AlertsEnabled != nil {
		rec.AlertsEnabled = *r.AlertsEnabled
	}
	if r.EmailNotifications != nil {
		rec.EmailNotificationsEnabled = *r.EmailNotifications
	}
	if r.PushNotifications != nil {
		rec.PushNotificationsEnabled = *r.PushNotifications
	}
	return rec
}

// CleanStrings trims entries and drops blanks and case-insensitive
// duplicates. A blank entry would otherwise match every string as a
// substring. The result is never nil.
func CleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func dedupeIDs(in []int64) []int64 {
	out := make([]int64, 0, len(in))
	seen := make(map[int64]bool, len(in))
	for _, id := range in {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
