package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/melih/lighthouse-relay/internal/core/domain"
	"github.com/melih/lighthouse-relay/internal/core/ports"
)

// StatusHandler serves the progress of the running relay.
type StatusHandler struct {
	provider ports.StatusProvider
}

func NewStatusHandler(provider ports.StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.provider.Status())
}

// Health reports 503 once the relay failed so probes can tell a stuck
// process from a healthy one.
func (h *StatusHandler) Health(c *fiber.Ctx) error {
	if h.provider.Status().State == domain.Failed {
		return c.Status(fiber.StatusServiceUnavailable).SendString("failed")
	}
	return c.SendString("ok")
}
