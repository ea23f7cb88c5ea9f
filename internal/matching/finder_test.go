package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"kino-alert-matching-service/internal/models"
)

func newTestFinder(prefs *fakePrefs, catalog *fakeCatalog) *Finder {
	f := NewFinder(prefs, catalog, DefaultMinScore, time.Second)
	f.now = func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, time.FixedZone("CET", 3600)) }
	return f
}

func TestFindMatches_FavoriteCinemaFilter(t *testing.T) {
	prefs := &fakePrefs{records: map[string]*models.PreferenceRecord{
		"u1": {UserID: "u1", FavoriteCinemaIDs: []int64{3}, MinImdbRating: 7, Genres: []string{"Drama"}},
	}}
	catalog := &fakeCatalog{
		cinemas: []models.Cinema{{ID: 3}, {ID: 7}},
		showtimes: []models.ShowtimeCandidate{
			{MovieID: 1, ShowtimeID: 10, CinemaID: 7, Movie: nolanMovie()},
			{MovieID: 1, ShowtimeID: 11, CinemaID: 3, Movie: nolanMovie()},
		},
	}

	matches := newTestFinder(prefs, catalog).FindMatches(context.Background(), "u1")

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].CinemaID != 3 || matches[0].ShowtimeID != 11 {
		t.Errorf("expected showtime 11 at cinema 3, got %+v", matches[0])
	}
}

func TestFindMatches_ThresholdAndOrdering(t *testing.T) {
	prefs := &fakePrefs{records: map[string]*models.PreferenceRecord{
		"u1": {UserID: "u1", MinImdbRating: 7, Genres: []string{"Drama"}, NotablePeople: []string{"Christopher Nolan"}},
	}}
	lowRated := models.MovieAttributes{Title: "Low", ImdbRating: ptr(5.0), Genres: "Comedy, Drama"}
	ratingOnly := models.MovieAttributes{Title: "Rated", ImdbRating: ptr(7.0), Genres: "Horror"}
	catalog := &fakeCatalog{
		cinemas: []models.Cinema{{ID: 1}},
		showtimes: []models.ShowtimeCandidate{
			{MovieID: 1, ShowtimeID: 1, CinemaID: 1, Movie: lowRated},
			{MovieID: 2, ShowtimeID: 2, CinemaID: 1, Movie: ratingOnly},
			{MovieID: 3, ShowtimeID: 3, CinemaID: 1, Movie: nolanMovie()},
			{MovieID: 2, ShowtimeID: 4, CinemaID: 1, Movie: ratingOnly},
		},
	}

	matches := newTestFinder(prefs, catalog).FindMatches(context.Background(), "u1")

	if len(matches) != 3 {
		t.Fatalf("expected 3 matches above threshold, got %d: %+v", len(matches), matches)
	}
	if matches[0].MovieID != 3 || matches[0].Score != 0.8 {
		t.Errorf("expected best match first, got %+v", matches[0])
	}
	// Ties keep catalog order
	if matches[1].ShowtimeID != 2 || matches[2].ShowtimeID != 4 {
		t.Errorf("expected tied matches in showtime order, got %d then %d", matches[1].ShowtimeID, matches[2].ShowtimeID)
	}
	for _, m := range matches {
		if m.Score < DefaultMinScore {
			t.Errorf("match below threshold: %+v", m)
		}
	}
}

func TestFindMatches_UsesUTCToday(t *testing.T) {
	prefs := &fakePrefs{records: map[string]*models.PreferenceRecord{"u1": {UserID: "u1", MinImdbRating: 7}}}
	catalog := &fakeCatalog{cinemas: []models.Cinema{{ID: 1}}}

	f := newTestFinder(prefs, catalog)
	// Already March 2nd in Warsaw, still March 1st in UTC.
	f.now = func() time.Time { return time.Date(2026, 3, 2, 0, 30, 0, 0, time.FixedZone("CET", 3600)) }
	f.FindMatches(context.Background(), "u1")

	got := catalog.gotFrom
	if got.Location() != time.UTC || got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Errorf("expected UTC date 2026-03-01, got %v", got)
	}
}

func TestFindMatches_EmptyResults(t *testing.T) {
	tests := []struct {
		name    string
		prefs   *fakePrefs
		catalog *fakeCatalog
	}{
		{
			name:    "no preferences",
			prefs:   &fakePrefs{records: map[string]*models.PreferenceRecord{}},
			catalog: &fakeCatalog{cinemas: []models.Cinema{{ID: 1}}},
		},
		{
			name:    "no cinemas",
			prefs:   &fakePrefs{records: map[string]*models.PreferenceRecord{"u1": {UserID: "u1"}}},
			catalog: &fakeCatalog{},
		},
		{
			name:    "no showtimes",
			prefs:   &fakePrefs{records: map[string]*models.PreferenceRecord{"u1": {UserID: "u1"}}},
			catalog: &fakeCatalog{cinemas: []models.Cinema{{ID: 1}}},
		},
		{
			name:    "catalog failure",
			prefs:   &fakePrefs{records: map[string]*models.PreferenceRecord{"u1": {UserID: "u1"}}},
			catalog: &fakeCatalog{cinemas: []models.Cinema{{ID: 1}}, failCalls: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := newTestFinder(tt.prefs, tt.catalog).FindMatches(context.Background(), "u1")
			if matches == nil || len(matches) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", matches)
			}
		})
	}
}

func TestFind_ReturnsCatalogError(t *testing.T) {
	prefs := &fakePrefs{records: map[string]*models.PreferenceRecord{"u1": {UserID: "u1"}}}
	catalog := &fakeCatalog{failCalls: 1}

	_, err := newTestFinder(prefs, catalog).find(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error from failing catalog")
	}
	if errors.Is(err, models.ErrPreferencesNotFound) {
		t.Errorf("unexpected error kind: %v", err)
	}
}
