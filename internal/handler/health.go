package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// BrokerStatus reports the push transport's connection state.
type BrokerStatus interface {
	Connected() bool
}

type HealthHandler struct {
	db     Pinger
	broker BrokerStatus
}

// NewHealthHandler creates the health handler. broker may be nil when push
// delivery is disabled.
func NewHealthHandler(db Pinger, broker BrokerStatus) *HealthHandler {
	return &HealthHandler{db: db, broker: broker}
}

// Health returns service health status. A lost database makes the service
// unavailable; a lost broker only degrades push delivery.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"service": "matching-service",
				"error":   "database unreachable",
			})
		}
	}

	resp := fiber.Map{
		"status":  "ok",
		"service": "matching-service",
	}
	if h.broker != nil {
		resp["nats"] = "connected"
		if !h.broker.Connected() {
			resp["status"] = "degraded"
			resp["nats"] = "disconnected"
		}
	}
	return c.JSON(resp)
}
