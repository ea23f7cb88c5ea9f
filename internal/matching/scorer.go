package matching

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kino-alert-matching-service/internal/models"
)

// Term weights.
const (
	ratingWeight   = 0.3
	genreWeight    = 0.3
	directorWeight = 0.2
	actorWeight    = 0.1 // per matched person, bounded only by the final clamp
	maxScore       = 1.0
)

// Score rates how well a movie fits a preference record. The result is in
// [0,1]; reasons list each term that contributed, in term order. Missing
// movie attributes contribute nothing.
func Score(movie models.MovieAttributes, prefs models.PreferenceRecord) (float64, []string) {
	var total float64
	reasons := []string{}

	// Rating
	if movie.ImdbRating != nil && *movie.ImdbRating >= prefs.MinImdbRating {
		total += ratingWeight
		reasons = append(reasons, "IMDb rating: "+strconv.FormatFloat(*movie.ImdbRating, 'f', -1, 64)+"/10")
	}

	// Genres
	if movieGenres := movie.GenreList(); len(movieGenres) > 0 && len(prefs.Genres) > 0 {
		var matched []string
		for _, g := range movieGenres {
			if containsAny(g, prefs.Genres) {
				matched = append(matched, g)
			}
		}
		if len(matched) > 0 {
			total += genreWeight * float64(len(matched)) / float64(len(movieGenres))
			reasons = append(reasons, "Genres: "+strings.Join(matched, ", "))
		}
	}

	// Director
	if movie.Director != nil && *movie.Director != "" && len(prefs.NotablePeople) > 0 {
		if people := peopleIn(*movie.Director, prefs.NotablePeople); len(people) > 0 {
			total += directorWeight
			reasons = append(reasons, "Director: "+strings.Join(people, ", "))
		}
	}

	// Actors
	if movie.Actors != nil && *movie.Actors != "" && len(prefs.NotablePeople) > 0 {
		if people := peopleIn(*movie.Actors, prefs.NotablePeople); len(people) > 0 {
			total += actorWeight * float64(len(people))
			reasons = append(reasons, "Actors: "+strings.Join(people, ", "))
		}
	}

	total = math.Min(total, maxScore)

	// Round score to 4 decimal places
	total = math.Round(total*10000) / 10000

	return total, reasons
}

// FormatScore renders a score as a whole percentage.
func FormatScore(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

// containsAny reports whether any needle is a case-insensitive substring of
// s. Blank needles never match.
func containsAny(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		n = strings.TrimSpace(n)
		if n != "" && strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// peopleIn returns the preference entries that occur, case-insensitively,
// within s.
func peopleIn(s string, people []string) []string {
	lower := strings.ToLower(s)
	var out []string
	for _, p := range people {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" && strings.Contains(lower, strings.ToLower(trimmed)) {
			out = append(out, trimmed)
		}
	}
	return out
}
