package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"kino-alert-matching-service/internal/metrics"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes bundles everything the HTTP surface needs.
type Routes struct {
	Health      *HealthHandler
	Preferences *PreferenceHandler
	Matches     *MatchHandler
	Admin       fiber.Handler // guards operator endpoints
	RateLimit   fiber.Handler // applied to /api/v1, may be nil
}

// Register mounts all routes on app.
func Register(app *fiber.App, r Routes) {
	app.Get("/health", r.Health.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")
	if r.RateLimit != nil {
		api.Use(r.RateLimit)
	}

	// Operator triggers
	api.Post("/matching/run", r.Admin, r.Matches.RunMatching)
	api.Post("/notifications/dispatch", r.Admin, r.Matches.DispatchNotifications)

	// Preferences
	api.Get("/users/:id/preferences", r.Preferences.GetPreferences)
	api.Post("/users/:id/preferences", r.Preferences.SetPreferences)

	// Matches and alerts
	api.Get("/users/:id/matches", r.Matches.GetMatches)
	api.Get("/users/:id/matches/preview", r.Matches.PreviewMatches)
	api.Get("/users/:id/alerts", r.Matches.GetAlerts)
	api.Post("/users/:id/notifications/test", r.Matches.SendTestNotification)
}
