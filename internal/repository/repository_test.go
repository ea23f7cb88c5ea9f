package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"kino-alert-matching-service/internal/database"
	"kino-alert-matching-service/internal/models"
)

// setupDB connects to TEST_DATABASE_DSN, applies migrations and empties
// every table. Tests skip when no database is configured.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE alert_history, user_matches, user_prefs, showtimes, movies, cinemas, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedCatalog(t *testing.T, db *sql.DB) (cinemaID, movieID, showtimeID int64) {
	t.Helper()
	if err := db.QueryRow(`INSERT INTO cinemas (name, city) VALUES ('Helios', 'Rzeszow') RETURNING id`).Scan(&cinemaID); err != nil {
		t.Fatalf("seed cinema: %v", err)
	}
	if err := db.QueryRow(`
		INSERT INTO movies (title, year, imdb_rating, genre, director, actors)
		VALUES ('Oppenheimer', 2023, 8.5, 'Biography, Drama', 'Christopher Nolan', NULL) RETURNING id
	`).Scan(&movieID); err != nil {
		t.Fatalf("seed movie: %v", err)
	}
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	if err := db.QueryRow(`
		INSERT INTO showtimes (movie_id, cinema_id, show_date, show_time) VALUES ($1, $2, $3, '20:00') RETURNING id
	`, movieID, cinemaID, tomorrow).Scan(&showtimeID); err != nil {
		t.Fatalf("seed showtime: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO showtimes (movie_id, cinema_id, show_date, show_time) VALUES ($1, $2, '2000-01-01', '20:00')
	`, movieID, cinemaID); err != nil {
		t.Fatalf("seed past showtime: %v", err)
	}
	return cinemaID, movieID, showtimeID
}

func TestPreferenceRepository_RoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	if _, err := repo.GetPreferences(ctx, "u1"); !errors.Is(err, models.ErrPreferencesNotFound) {
		t.Fatalf("expected ErrPreferencesNotFound, got %v", err)
	}

	rec := models.SetPreferenceRequest{
		FavoriteCinemaIDs: []int64{1, 2},
		Genres:            []string{"Drama"},
		NotablePeople:     []string{"Christopher Nolan"},
	}.ToRecord("u1")
	if _, err := repo.UpsertPreferences(ctx, rec); err != nil {
		t.Fatalf("UpsertPreferences() error: %v", err)
	}

	got, err := repo.GetPreferences(ctx, "u1")
	if err != nil {
		t.Fatalf("GetPreferences() error: %v", err)
	}
	if len(got.FavoriteCinemaIDs) != 2 || got.Genres[0] != "Drama" || got.MinImdbRating != 7.0 {
		t.Errorf("unexpected record %+v", got)
	}

	ids, err := repo.ListUserIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("ListUserIDs() = %v, %v", ids, err)
	}
}

func TestPreferenceRepository_NullMinimumUsesDefault(t *testing.T) {
	db := setupDB(t)
	if _, err := db.Exec(`INSERT INTO user_prefs (user_id, genres) VALUES ('u2', ARRAY['Drama', ''])`); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	got, err := NewPreferenceRepository(db).GetPreferences(context.Background(), "u2")
	if err != nil {
		t.Fatalf("GetPreferences() error: %v", err)
	}
	if got.MinImdbRating != models.DefaultMinImdbRating {
		t.Errorf("expected default min rating, got %v", got.MinImdbRating)
	}
	if len(got.Genres) != 1 {
		t.Errorf("expected blank genre dropped, got %q", got.Genres)
	}
}

func TestPreferenceRepository_KeepsMinimumPrecision(t *testing.T) {
	db := setupDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	rating := 7.25
	rec := models.SetPreferenceRequest{MinImdbRating: &rating}.ToRecord("u3")
	if _, err := repo.UpsertPreferences(ctx, rec); err != nil {
		t.Fatalf("UpsertPreferences() error: %v", err)
	}

	got, err := repo.GetPreferences(ctx, "u3")
	if err != nil {
		t.Fatalf("GetPreferences() error: %v", err)
	}
	if got.MinImdbRating != 7.25 {
		t.Errorf("expected min rating stored as 7.25, got %v", got.MinImdbRating)
	}
}

func TestCatalogRepository_UpcomingShowtimes(t *testing.T) {
	db := setupDB(t)
	cinemaID, movieID, showtimeID := seedCatalog(t, db)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	cinemas, err := repo.GetCinemas(ctx)
	if err != nil || len(cinemas) != 1 {
		t.Fatalf("GetCinemas() = %v, %v", cinemas, err)
	}

	showtimes, err := repo.GetUpcomingShowtimes(ctx, []int64{cinemaID}, time.Now())
	if err != nil {
		t.Fatalf("GetUpcomingShowtimes() error: %v", err)
	}
	if len(showtimes) != 1 {
		t.Fatalf("expected only the future showtime, got %d", len(showtimes))
	}
	st := showtimes[0]
	if st.ShowtimeID != showtimeID || st.MovieID != movieID || st.ShowTime != "20:00" {
		t.Errorf("unexpected showtime %+v", st)
	}
	if st.Movie.ImdbRating == nil || *st.Movie.ImdbRating != 8.5 || st.Movie.Actors != nil {
		t.Errorf("unexpected movie attributes %+v", st.Movie)
	}
}

func TestMatchRepository_InsertIsUnique(t *testing.T) {
	db := setupDB(t)
	_, movieID, showtimeID := seedCatalog(t, db)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	m := models.MatchResult{UserID: "u1", MovieID: movieID, ShowtimeID: showtimeID, Score: 0.8, Reasons: []string{"Genres: Drama"}}
	if err := repo.Insert(ctx, m); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	m.Score = 0.5
	if err := repo.Insert(ctx, m); !errors.Is(err, models.ErrDuplicateMatch) {
		t.Fatalf("expected ErrDuplicateMatch, got %v", err)
	}

	exists, err := repo.Exists(ctx, "u1", movieID, showtimeID)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v", exists, err)
	}

	list, err := repo.ListForUser(ctx, "u1", models.MatchListParams{})
	if err != nil || len(list) != 1 || list[0].Score != 0.8 {
		t.Fatalf("ListForUser() = %+v, %v", list, err)
	}
	if len(list[0].Reasons) != 1 {
		t.Errorf("expected reasons persisted, got %v", list[0].Reasons)
	}
}

func TestMatchRepository_NotificationFlow(t *testing.T) {
	db := setupDB(t)
	_, movieID, showtimeID := seedCatalog(t, db)
	matches := NewMatchRepository(db)
	alerts := NewAlertRepository(db)
	ctx := context.Background()

	if err := matches.Insert(ctx, models.MatchResult{UserID: "u1", MovieID: movieID, ShowtimeID: showtimeID, Score: 0.6}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	pending, err := matches.ListUnnotified(ctx)
	if err != nil || len(pending) != 1 {
		t.Fatalf("ListUnnotified() = %+v, %v", pending, err)
	}
	if pending[0].MovieTitle != "Oppenheimer" || pending[0].CinemaName != "Helios" {
		t.Errorf("unexpected pending match %+v", pending[0])
	}

	if err := matches.MarkNotified(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkNotified() error: %v", err)
	}
	if err := alerts.RecordAlert(ctx, models.Alert{UserID: "u1", MovieID: movieID, ShowtimeID: showtimeID, AlertType: models.AlertTypeEmail, Status: models.AlertStatusSent}); err != nil {
		t.Fatalf("RecordAlert() error: %v", err)
	}

	pending, err = matches.ListUnnotified(ctx)
	if err != nil || len(pending) != 0 {
		t.Errorf("expected nothing pending, got %+v, %v", pending, err)
	}

	history, err := alerts.ListForUser(ctx, "u1", 50)
	if err != nil || len(history) != 1 || history[0].AlertType != models.AlertTypeEmail {
		t.Errorf("ListForUser() = %+v, %v", history, err)
	}
}

func TestUserRepository_GetEmail(t *testing.T) {
	db := setupDB(t)
	if _, err := db.Exec(`INSERT INTO users (id, email) VALUES ('u1', 'u1@example.com'), ('u2', NULL)`); err != nil {
		t.Fatalf("seed users: %v", err)
	}
	repo := NewUserRepository(db)
	ctx := context.Background()

	if email, err := repo.GetEmail(ctx, "u1"); err != nil || email != "u1@example.com" {
		t.Errorf("GetEmail(u1) = %q, %v", email, err)
	}
	for _, id := range []string{"u2", "missing"} {
		if _, err := repo.GetEmail(ctx, id); !errors.Is(err, models.ErrContactNotFound) {
			t.Errorf("GetEmail(%s): expected ErrContactNotFound, got %v", id, err)
		}
	}
}

func TestMatchRepository_ListForUserDetails(t *testing.T) {
	db := setupDB(t)
	cinemaID, movieID, showtimeID := seedCatalog(t, db)
	repo := NewMatchRepository(db)
	ctx := context.Background()

	if err := repo.Insert(ctx, models.MatchResult{UserID: "u1", MovieID: movieID, ShowtimeID: showtimeID, Score: 0.8}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	// Refers to a showtime that no longer exists
	if err := repo.Insert(ctx, models.MatchResult{UserID: "u1", MovieID: movieID, ShowtimeID: 9999, Score: 0.4}); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	list, err := repo.ListForUser(ctx, "u1", models.MatchListParams{})
	if err != nil || len(list) != 2 {
		t.Fatalf("ListForUser() = %+v, %v", list, err)
	}

	best := list[0]
	if best.Movie == nil || best.Movie.Title != "Oppenheimer" || best.Movie.Year == nil || *best.Movie.Year != 2023 {
		t.Errorf("unexpected movie %+v", best.Movie)
	}
	if best.Movie.ImdbRating == nil || *best.Movie.ImdbRating != 8.5 || best.Movie.Director != "Christopher Nolan" {
		t.Errorf("unexpected movie attributes %+v", best.Movie)
	}
	if best.Showtime == nil || best.Showtime.ShowTime != "20:00" {
		t.Errorf("unexpected showtime %+v", best.Showtime)
	}
	if best.Cinema == nil || best.Cinema.Name != "Helios" || best.Cinema.City != "Rzeszow" {
		t.Errorf("unexpected cinema %+v (cinema id %d)", best.Cinema, cinemaID)
	}

	orphan := list[1]
	if orphan.Movie == nil || orphan.Showtime != nil || orphan.Cinema != nil {
		t.Errorf("expected movie only for a removed showtime, got %+v", orphan)
	}
}

func TestAlertRepository_ListForUserDetails(t *testing.T) {
	db := setupDB(t)
	_, movieID, showtimeID := seedCatalog(t, db)
	repo := NewAlertRepository(db)
	ctx := context.Background()

	if err := repo.RecordAlert(ctx, models.Alert{UserID: "u1", MovieID: movieID, ShowtimeID: showtimeID, AlertType: models.AlertTypePush, Status: models.AlertStatusSent}); err != nil {
		t.Fatalf("RecordAlert() error: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO alert_history (user_id, alert_type, status) VALUES ('u1', 'email', 'sent')`); err != nil {
		t.Fatalf("seed bare alert: %v", err)
	}

	list, err := repo.ListForUser(ctx, "u1", 50)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListForUser() = %+v, %v", list, err)
	}

	// Newest first: the bare alert was inserted last
	if list[0].Movie != nil || list[0].Showtime != nil || list[0].MovieID != 0 {
		t.Errorf("expected no details for a bare alert, got %+v", list[0])
	}
	pushed := list[1]
	if pushed.Movie == nil || pushed.Movie.Title != "Oppenheimer" || *pushed.Movie.Year != 2023 {
		t.Errorf("unexpected movie %+v", pushed.Movie)
	}
	if pushed.Showtime == nil || pushed.Cinema == nil || pushed.Cinema.City != "Rzeszow" {
		t.Errorf("unexpected screening %+v %+v", pushed.Showtime, pushed.Cinema)
	}
}
