package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/jobqueue"
	"github.com/vibestack/vibestack/internal/pkg/payments"
	"github.com/vibestack/vibestack/internal/pkg/session"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

// HandleCheckoutConfirm lands the success redirect from the payment widget.
// The query string carries the provider parameters (paymentKey, orderId,
// amount, and authKey/customerKey for subscriptions) plus the context our
// checkout session embedded (plan, userId, contentId). The response is
// always a redirect to the success or failure page so a browser refresh
// never replays the confirmation.
func HandleCheckoutConfirm(c *fiber.Ctx) error {
	params := payments.ConfirmParams{
		PaymentKey:  c.Query("paymentKey"),
		OrderID:     c.Query("orderId"),
		Amount:      int64(c.QueryInt("amount", 0)),
		UserID:      uint(c.QueryInt("userId", 0)),
		Plan:        c.Query("plan"),
		ContentID:   uint(c.QueryInt("contentId", 0)),
		AuthKey:     c.Query("authKey"),
		CustomerKey: c.Query("customerKey"),
	}
	if params.CustomerKey == "" && params.UserID != 0 {
		// The customer key is derived deterministically, so it can be
		// recovered even when the redirect dropped it.
		params.CustomerKey = payments.NewCheckoutConfigFromEnv().CustomerKeyFor(params.UserID)
	}

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	result, err := svc.ConfirmCallback(ctx, params)
	if err != nil {
		return failRedirect(c, params.OrderID, confirmErrorMessage(err))
	}

	if result.Subscription != nil {
		// Refresh the cached plan so the navbar updates immediately.
		_ = session.SetSessionValue(c, "user_plan", result.Subscription.Plan)
	}

	enqueueReceiptEmail(params.UserID, result)

	return c.Redirect("/checkout/success?orderId="+url.QueryEscape(params.OrderID), fiber.StatusSeeOther)
}

// HandleCheckoutSuccess renders the settled state for an order. The confirm
// and capture handlers redirect here instead of rendering inline.
func HandleCheckoutSuccess(c *fiber.Ctx) error {
	orderID := c.Query("orderId")
	bindings := fiber.Map{"OrderID": orderID}

	repo := payments.NewRepository(database.GetDB())
	if purchase, err := repo.GetPurchaseByOrderID(orderID); err == nil {
		bindings["Purchase"] = purchase
		bindings["Plan"] = models.PlanSingle
	} else if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		if sub, err := repo.GetSubscriptionByUser(userCtx.UserID); err == nil && sub.IsEntitling() {
			bindings["Subscription"] = sub
			bindings["Plan"] = sub.Plan
		}
	}

	return renderPage(c, "checkout/success", "Payment complete", bindings)
}

// HandleCheckoutFail lands the provider's failure redirect.
func HandleCheckoutFail(c *fiber.Ctx) error {
	message := c.Query("message")
	if message == "" {
		message = "The payment was not completed."
	}

	return renderPage(c, "checkout/fail", "Payment failed", fiber.Map{
		"Message": message,
		"Code":    c.Query("code"),
		"OrderID": c.Query("orderId"),
	})
}

// HandlePayPalReturn lands the buyer after PayPal approval: capture the
// order, settle the pending purchase and redirect to the success page. The
// token query parameter is PayPal's order id; orderId/userId/contentId are
// the context embedded in the return URL at session creation.
func HandlePayPalReturn(c *fiber.Ctx) error {
	providerOrderID := c.Query("token")
	orderID := c.Query("orderId")
	userID := uint(c.QueryInt("userId", 0))
	contentID := uint(c.QueryInt("contentId", 0))
	if providerOrderID == "" || userID == 0 || contentID == 0 {
		return failRedirect(c, orderID, "The confirmation link is incomplete. Please retry the checkout.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	payment, err := payments.NewPayPalClientFromEnv().CaptureOrder(ctx, providerOrderID)
	if err != nil {
		return failRedirect(c, orderID, confirmErrorMessage(err))
	}
	if payment.Status != payments.PaymentStatusDone {
		return failRedirect(c, orderID, "The payment provider declined this payment.")
	}
	if payment.OrderID == "" {
		payment.OrderID = orderID
	}

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	purchase, err := svc.CompleteSinglePurchase(ctx, userID, contentID, payment)
	if err != nil {
		return failRedirect(c, payment.OrderID, confirmErrorMessage(err))
	}

	enqueueReceiptEmail(userID, &payments.ConfirmResult{Plan: models.PlanSingle, Purchase: purchase})

	return c.Redirect("/checkout/success?orderId="+url.QueryEscape(purchase.OrderID), fiber.StatusSeeOther)
}

func failRedirect(c *fiber.Ctx, orderID, message string) error {
	q := url.Values{}
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	q.Set("message", message)
	return c.Redirect("/checkout/fail?"+q.Encode(), fiber.StatusSeeOther)
}

// enqueueReceiptEmail queues the payment receipt. Delivery failures never
// affect the checkout response.
func enqueueReceiptEmail(userID uint, result *payments.ConfirmResult) {
	user, err := repository.GetGlobalRepositories().User.GetByID(userID)
	if err != nil || user.Email == "" {
		return
	}

	subject := "Your VibeStack receipt"
	body := fmt.Sprintf("Thank you for your payment.\n\nPlan: %s\n", result.Plan)
	if result.Purchase != nil {
		body += fmt.Sprintf("Amount: %d %s\nOrder: %s\n", result.Purchase.Amount, result.Purchase.Currency, result.Purchase.OrderID)
	}
	if result.Subscription != nil && result.Subscription.CurrentPeriodEnd != nil {
		body += fmt.Sprintf("Active until: %s\n", result.Subscription.CurrentPeriodEnd.Format("2006-01-02"))
	}

	job := jobqueue.NewJob(jobqueue.JobTypeReceiptEmail, map[string]string{
		"to":      user.Email,
		"subject": subject,
		"body":    body,
	})
	if err := jobqueue.GetManager().GetQueue().Enqueue(job); err != nil {
		log.Printf("failed to enqueue receipt email for user %d: %v", userID, err)
	}
}

func confirmErrorMessage(err error) string {
	switch {
	case errors.Is(err, payments.ErrMissingCallbackParameters):
		return "The confirmation link is incomplete. Please retry the checkout."
	case errors.Is(err, payments.ErrProviderRejected):
		return "The payment provider declined this payment."
	default:
		return "We could not confirm your payment. If you were charged, contact support."
	}
}
