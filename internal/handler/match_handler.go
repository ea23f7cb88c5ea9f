package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"kino-alert-matching-service/internal/matching"
	"kino-alert-matching-service/internal/models"
	"kino-alert-matching-service/internal/notify"
)

// MatchService is what the match and operator endpoints call.
type MatchService interface {
	RunMatching(ctx context.Context) (*matching.RunReport, error)
	DispatchNotifications(ctx context.Context) (*notify.DispatchReport, error)
	PreviewMatches(ctx context.Context, userID string) []models.MatchCandidate
	ListMatches(ctx context.Context, userID string, params models.MatchListParams) ([]models.MatchDetail, error)
	ListAlerts(ctx context.Context, userID string) ([]models.AlertDetail, error)
	SendTestNotification(ctx context.Context, userID string) (*models.TestNotificationResult, error)
}

type MatchHandler struct {
	svc MatchService
}

func NewMatchHandler(svc MatchService) *MatchHandler {
	return &MatchHandler{svc: svc}
}

// RunMatching runs the batch matching pass for every user.
func (h *MatchHandler) RunMatching(c fiber.Ctx) error {
	report, err := h.svc.RunMatching(c.Context())
	if err != nil {
		slog.Error("matching run failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "matching run failed"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Matching completed for all users",
		"report":  report,
	})
}

// DispatchNotifications sends alerts for matches not yet notified.
func (h *MatchHandler) DispatchNotifications(c fiber.Ctx) error {
	report, err := h.svc.DispatchNotifications(c.Context())
	if err != nil {
		slog.Error("notification dispatch failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "notification dispatch failed"})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Notifications processed successfully",
		"report":  report,
	})
}

// GetMatches returns a page of a user's stored matches.
func (h *MatchHandler) GetMatches(c fiber.Ctx) error {
	userID := c.Params("id")

	params := models.MatchListParams{
		Limit:  fiber.Query(c, "limit", 20),
		Offset: fiber.Query(c, "offset", 0),
	}
	params.Validate()

	matches, err := h.svc.ListMatches(c.Context(), userID, params)
	if err != nil {
		slog.Error("failed to list matches", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get matches"})
	}
	if matches == nil {
		matches = []models.MatchDetail{}
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"matches": matches,
		"limit":   params.Limit,
		"offset":  params.Offset,
	})
}

// PreviewMatches computes a user's current candidates without storing
// them.
func (h *MatchHandler) PreviewMatches(c fiber.Ctx) error {
	userID := c.Params("id")
	candidates := h.svc.PreviewMatches(c.Context(), userID)

	return c.JSON(fiber.Map{
		"user_id": userID,
		"matches": candidates,
		"total":   len(candidates),
	})
}

// GetAlerts returns a user's most recent alerts.
func (h *MatchHandler) GetAlerts(c fiber.Ctx) error {
	userID := c.Params("id")

	alerts, err := h.svc.ListAlerts(c.Context(), userID)
	if err != nil {
		slog.Error("failed to list alerts", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get alerts"})
	}
	if alerts == nil {
		alerts = []models.AlertDetail{}
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"alerts":  alerts,
	})
}

// SendTestNotification sends a sample alert through the user's enabled
// channels and reports the per-channel outcome.
func (h *MatchHandler) SendTestNotification(c fiber.Ctx) error {
	userID := c.Params("id")

	result, err := h.svc.SendTestNotification(c.Context(), userID)
	if errors.Is(err, models.ErrPreferencesNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "preferences not found"})
	}
	if err != nil {
		slog.Error("test notification failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "test notification failed"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Test notification completed",
		"results": result,
	})
}
