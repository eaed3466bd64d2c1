package controllers

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/payments"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

// HandleCheckoutPage renders the payment widget page for a plan or a single
// content unlock.
func HandleCheckoutPage(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	plan := payments.NormalizePlan(c.Query("plan"))
	if plan == "" {
		return c.Redirect("/pricing", fiber.StatusSeeOther)
	}

	var content *models.Content
	if plan == models.PlanSingle {
		contentID := uint(c.QueryInt("contentId", 0))
		if contentID == 0 {
			return c.Redirect("/pricing", fiber.StatusSeeOther)
		}
		var err error
		content, err = repository.GetGlobalFactory().GetContentRepository().GetByID(contentID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Content not found")
		}
	}

	return renderPage(c, "checkout/index", "Checkout", fiber.Map{
		"Plan":    plan,
		"Content": content,
	})
}

type checkoutSessionRequest struct {
	Plan      string `json:"plan"`
	ContentID uint   `json:"contentId"`
	Currency  string `json:"currency"`
	Country   string `json:"country"`
}

// HandleCheckoutSession creates a checkout session descriptor for the payment
// widget. JSON in, JSON out.
func HandleCheckoutSession(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var body checkoutSessionRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_request", "message": "Malformed request body",
		})
	}

	req := payments.CheckoutRequest{
		UserID:   userCtx.UserID,
		UserName: userCtx.Username,
		Plan:     body.Plan,
		Currency: body.Currency,
		Country:  body.Country,
	}
	if user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID); err == nil {
		req.UserEmail = user.Email
	}
	if payments.NormalizePlan(body.Plan) == models.PlanSingle && body.ContentID > 0 {
		content, err := repository.GetGlobalFactory().GetContentRepository().GetByID(body.ContentID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "not_found", "message": "Content not found",
			})
		}
		req.Content = content
	}

	cfg := payments.NewCheckoutConfigFromEnv()
	session, err := cfg.NewSession(req)
	if err != nil {
		return checkoutErrorResponse(c, err)
	}

	// Non-KRW single unlocks go through PayPal's order/approve/capture flow.
	// KRW and all subscriptions stay on the Toss widget: renewals charge a
	// Toss billing key, which PayPal's one-time orders cannot provide.
	if req.Content != nil && session.Currency != payments.CurrencyKRW {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		returnQuery := url.Values{}
		returnQuery.Set("orderId", session.OrderID)
		returnQuery.Set("userId", strconv.FormatUint(uint64(userCtx.UserID), 10))
		returnQuery.Set("contentId", strconv.FormatUint(uint64(req.Content.ID), 10))

		order, err := payments.NewPayPalClientFromEnv().CreateOrder(ctx,
			session.OrderID, session.Amount, session.Currency,
			cfg.PublicBaseURL+"/checkout/paypal/return?"+returnQuery.Encode(),
			cfg.PublicBaseURL+"/checkout/fail?orderId="+url.QueryEscape(session.OrderID))
		if err != nil {
			return checkoutErrorResponse(c, err)
		}
		session.Provider = models.PaymentProviderPayPal
		session.ApprovalURL = order.ApprovalURL
	}

	// Record a pending purchase row for single unlocks so delayed settlement
	// (virtual account deposits, PayPal capture on return) has something to
	// settle against.
	if req.Content != nil {
		pending := &models.Purchase{
			UserID:    userCtx.UserID,
			ContentID: req.Content.ID,
			Amount:    session.Amount,
			Currency:  session.Currency,
			Provider:  session.Provider,
			OrderID:   session.OrderID,
			Status:    models.PurchaseStatusPending,
		}
		if err := database.GetDB().Create(pending).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal_server_error", "message": "Could not record checkout",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(session)
}

func checkoutErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payments.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized", "message": "Login required",
		})
	case errors.Is(err, payments.ErrInvalidPlanConfiguration):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_plan", "message": "Unknown plan or currency",
		})
	case errors.Is(err, payments.ErrProviderNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "provider_not_configured", "message": "Payments are not configured",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error", "message": "Checkout failed",
		})
	}
}
