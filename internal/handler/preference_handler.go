package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"kino-alert-matching-service/internal/models"
	"kino-alert-matching-service/internal/service"
)

// PreferenceService is what the preference endpoints call.
type PreferenceService interface {
	GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error)
	SetPreferences(ctx context.Context, userID string, req models.SetPreferenceRequest) (*models.PreferenceRecord, error)
}

type PreferenceHandler struct {
	svc PreferenceService
}

func NewPreferenceHandler(svc PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{svc: svc}
}

// GetPreferences returns a user's preferences.
func (h *PreferenceHandler) GetPreferences(c fiber.Ctx) error {
	userID := c.Params("id")

	pref, err := h.svc.GetPreferences(c.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrPreferencesNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "preferences not found"})
		}
		slog.Error("failed to get preferences", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get preferences"})
	}

	return c.JSON(pref)
}

// SetPreferences replaces a user's preferences.
func (h *PreferenceHandler) SetPreferences(c fiber.Ctx) error {
	userID := c.Params("id")

	var req models.SetPreferenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	pref, err := h.svc.SetPreferences(c.Context(), userID, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		slog.Error("failed to set preferences", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to set preferences"})
	}

	return c.JSON(pref)
}
