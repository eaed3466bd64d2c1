package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/payments"
)

// HandleRenewalSweep runs the daily renewal pass over due subscriptions.
// Guarded by the sweep bearer token; meant to be hit by a scheduler.
func HandleRenewalSweep(c *fiber.Ctx) error {
	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := svc.RunRenewalSweep(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sweep_failed", "message": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(report)
}
