package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kino-alert-matching-service/internal/models"
)

type fakePrefs struct {
	records map[string]*models.PreferenceRecord
	order   []string
	listErr error
}

func (f *fakePrefs) GetPreferences(_ context.Context, userID string) (*models.PreferenceRecord, error) {
	rec, ok := f.records[userID]
	if !ok {
		return nil, models.ErrPreferencesNotFound
	}
	return rec, nil
}

func (f *fakePrefs) ListUserIDs(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.order, nil
}

type fakeCatalog struct {
	mu        sync.Mutex
	cinemas   []models.Cinema
	showtimes []models.ShowtimeCandidate
	// failCalls makes the first n GetCinemas calls fail.
	failCalls int
	calls     int
	gotFrom   time.Time
}

func (f *fakeCatalog) GetCinemas(context.Context) ([]models.Cinema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failCalls {
		return nil, errors.New("catalog unavailable")
	}
	return f.cinemas, nil
}

func (f *fakeCatalog) GetUpcomingShowtimes(_ context.Context, _ []int64, from time.Time) ([]models.ShowtimeCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotFrom = from
	return f.showtimes, nil
}

type fakeMatchStore struct {
	mu        sync.Mutex
	rows      map[string]models.MatchResult
	insertErr error
	// raceOnInsert reports a duplicate on insert even though Exists said no.
	raceOnInsert bool
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{rows: make(map[string]models.MatchResult)}
}

func matchKey(userID string, movieID, showtimeID int64) string {
	return fmt.Sprintf("%s/%d/%d", userID, movieID, showtimeID)
}

func (f *fakeMatchStore) Exists(_ context.Context, userID string, movieID, showtimeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[matchKey(userID, movieID, showtimeID)]
	return ok, nil
}

func (f *fakeMatchStore) Insert(_ context.Context, m models.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.raceOnInsert {
		return models.ErrDuplicateMatch
	}
	key := matchKey(m.UserID, m.MovieID, m.ShowtimeID)
	if _, ok := f.rows[key]; ok {
		return models.ErrDuplicateMatch
	}
	f.rows[key] = m
	return nil
}

func (f *fakeMatchStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func ptr[T any](v T) *T { return &v }

func nolanMovie() models.MovieAttributes {
	return models.MovieAttributes{
		Title:      "Oppenheimer",
		ImdbRating: ptr(8.5),
		Genres:     "Drama",
		Director:   ptr("Christopher Nolan"),
		Actors:     ptr("Cillian Murphy"),
	}
}
