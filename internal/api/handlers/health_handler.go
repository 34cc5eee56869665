package handlers

import (
	"context"
	"time"

	"finhealth/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports the scoring strategy and accepted formats. ping checks
// the store backend and may be nil for the in-memory store.
func HealthCheck(ping func(ctx context.Context) error, strategy string, formats []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.JSON(dto.HealthResponse{
			Status:   "healthy",
			Strategy: strategy,
			Formats:  formats,
		})
	}
}
