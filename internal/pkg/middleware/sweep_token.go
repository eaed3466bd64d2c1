package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/internal/pkg/env"
)

// RequireSweepToken guards the scheduler-only renewal endpoint with a static
// bearer token. Unconfigured token means the endpoint is disabled.
func RequireSweepToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		expected := env.GetEnv("RENEWAL_SWEEP_TOKEN", "")

		if expected == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "unavailable",
				"message": "Renewal sweep is not configured",
			})
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid sweep token",
			})
		}
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Get("X-Sweep-Token"))
}
