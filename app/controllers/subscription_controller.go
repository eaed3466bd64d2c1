package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vibestack/vibestack/internal/pkg/constants"
	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/payments"
	"github.com/vibestack/vibestack/internal/pkg/session"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

// HandleSubscriptionCancel cancels the caller's subscription. With
// at_period_end=1 access continues until the paid period lapses; otherwise
// the cancellation is immediate.
func HandleSubscriptionCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	deferred := c.FormValue("at_period_end") == "1"

	var err error
	if deferred {
		_, err = svc.CancelAtPeriodEnd(ctx, userCtx.UserID)
	} else {
		_, err = svc.CancelImmediately(ctx, userCtx.UserID, c.FormValue("reason"))
	}
	if err != nil {
		msg := "Cancellation failed"
		if errors.Is(err, payments.ErrNotFound) {
			msg = "No subscription to cancel"
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": msg}).Redirect(constants.SubscriptionRoute)
	}

	if !deferred {
		_ = session.SetSessionValue(c, "user_plan", "free")
	}

	msg := "Subscription canceled"
	if deferred {
		msg = "Subscription will end with the current period"
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": msg}).Redirect(constants.SubscriptionRoute)
}

// HandleSubscriptionResync re-reads the subscription row and refreshes the
// cached session plan.
func HandleSubscriptionResync(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	plan := "free"
	sub, err := payments.NewRepository(database.GetDB()).GetSubscriptionByUser(userCtx.UserID)
	if err == nil && sub.IsEntitling() {
		plan = sub.Plan
	}

	_ = session.SetSessionValue(c, "user_plan", plan)
	return flash.WithSuccess(c, fiber.Map{
		"type": "success", "message": "Plan refreshed: " + plan,
	}).Redirect(constants.SubscriptionRoute)
}
