package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/env"
	"github.com/vibestack/vibestack/internal/pkg/payments"
)

// tossWebhookPayload is the wire shape of a payment status webhook.
type tossWebhookPayload struct {
	EventType string `json:"eventType"`
	CreatedAt string `json:"createdAt"`
	Data      struct {
		PaymentKey  string `json:"paymentKey"`
		OrderID     string `json:"orderId"`
		Status      string `json:"status"`
		TotalAmount int64  `json:"totalAmount"`
		Method      string `json:"method"`
		Cancels     []struct {
			CancelReason string `json:"cancelReason"`
		} `json:"cancels"`
	} `json:"data"`
	// Deposit callbacks deliver a flat shape instead of data{}.
	Secret  string `json:"secret"`
	Status  string `json:"status"`
	OrderID string `json:"orderId"`
}

// HandlePaymentWebhook ingests provider webhooks: verify the signature,
// then record (dedup) and apply. A delivery that fails verification is
// rejected before it can touch the event ledger.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := firstHeaderValue(c, "Webhook-Id", "X-Webhook-Id")
	signature := strings.TrimSpace(c.Get("X-Webhook-Signature"))
	secret := env.GetEnv("TOSS_WEBHOOK_SECRET", "")

	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var payload tossWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	input := normalizeWebhookPayload(payload, rawBody)
	input.EventID = eventID
	input.SignatureValid = payments.VerifyWebhookSignature(rawBody, signature, secret)

	outcome, err := svc.IngestWebhook(ctx, input)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if outcome.Duplicate {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if outcome.ApplyErr != nil {
		if errors.Is(outcome.ApplyErr, payments.ErrNotFound) {
			// Nothing on our side matches; acknowledge so the provider stops retrying.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_apply_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

func normalizeWebhookPayload(payload tossWebhookPayload, rawBody []byte) payments.WebhookInput {
	input := payments.WebhookInput{
		Provider:    models.PaymentProviderToss,
		EventType:   payload.EventType,
		PayloadJSON: string(rawBody),
	}

	if strings.EqualFold(payload.EventType, payments.EventDepositCallback) {
		input.OrderID = payload.OrderID
		input.Status = payload.Status
		return input
	}

	input.PaymentKey = payload.Data.PaymentKey
	input.OrderID = payload.Data.OrderID
	input.Status = payload.Data.Status
	input.TotalAmount = payload.Data.TotalAmount
	input.Method = payload.Data.Method
	if len(payload.Data.Cancels) > 0 {
		input.CancelReason = payload.Data.Cancels[len(payload.Data.Cancels)-1].CancelReason
	}
	return input
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
