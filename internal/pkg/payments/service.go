package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// Service owns the payment state transitions: confirmation, purchase
// completion, subscription activation and webhook effects. All canonical
// state lives in the injected repository.
type Service struct {
	repo     Repository
	provider Provider

	now func() time.Time
}

// NewService creates a payment service from an injected repository and
// provider client.
func NewService(repo Repository, provider Provider) *Service {
	return &Service{repo: repo, provider: provider, now: time.Now}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider Provider) *Service {
	return NewService(NewRepository(db), provider)
}

// ConfirmResult reports what a successful confirmation produced.
type ConfirmResult struct {
	Plan         string
	Payment      *Payment
	Purchase     *models.Purchase
	Subscription *models.Subscription
}

// ConfirmCallback validates that a redirect-flow payment actually completed
// and dispatches to the purchase or subscription effect.
func (s *Service) ConfirmCallback(ctx context.Context, p ConfirmParams) (*ConfirmResult, error) {
	if p.PaymentKey == "" || p.OrderID == "" || p.Amount <= 0 || p.UserID == 0 || NormalizePlan(p.Plan) == "" {
		return nil, ErrMissingCallbackParameters
	}
	plan := NormalizePlan(p.Plan)
	if plan == models.PlanSingle && p.ContentID == 0 {
		return nil, ErrMissingCallbackParameters
	}
	// Subscriptions are useless without a billing key: the renewal sweep
	// skips any row that has none, so refuse to activate before the charge
	// is confirmed rather than strand the user on a non-renewable plan.
	if plan != models.PlanSingle && (p.AuthKey == "" || p.CustomerKey == "") {
		return nil, ErrMissingCallbackParameters
	}

	payment, err := s.provider.ConfirmPayment(ctx, p.PaymentKey, p.OrderID, p.Amount)
	if err != nil {
		return nil, err
	}
	if payment.Status != PaymentStatusDone {
		return nil, fmt.Errorf("%w: status=%s order=%s", ErrProviderRejected, payment.Status, p.OrderID)
	}

	result := &ConfirmResult{Plan: plan, Payment: payment}
	if plan == models.PlanSingle {
		purchase, err := s.CompleteSinglePurchase(ctx, p.UserID, p.ContentID, payment)
		if err != nil {
			return nil, err
		}
		result.Purchase = purchase
		return result, nil
	}

	// Exchange the short-lived auth key for the billing key the renewal
	// sweep will charge against.
	billingKey, err := s.provider.IssueBillingKey(ctx, p.AuthKey, p.CustomerKey)
	if err != nil {
		return nil, err
	}

	sub, err := s.ActivateSubscription(ctx, ActivationInput{
		UserID:      p.UserID,
		Plan:        plan,
		Payment:     payment,
		BillingKey:  billingKey,
		CustomerKey: p.CustomerKey,
	})
	if err != nil {
		return nil, err
	}
	result.Subscription = sub
	return result, nil
}

// CompleteSinglePurchase records a completed one-time unlock: the purchase
// row, the access grant and the credit accrual as one transactional unit.
// Re-running with the same order id is a no-op returning the stored row.
func (s *Service) CompleteSinglePurchase(ctx context.Context, userID, contentID uint, payment *Payment) (*models.Purchase, error) {
	_ = ctx
	var result *models.Purchase
	err := s.repo.Transaction(func(tx Repository) error {
		existing, err := tx.GetPurchaseByOrderID(payment.OrderID)
		if err == nil && existing.Status != models.PurchaseStatusPending {
			// Duplicate confirm for an already-settled order.
			result = existing
			return nil
		}
		if err == nil {
			// Checkout pre-created a pending row; settle it in place.
			existing.Status = models.PurchaseStatusCompleted
			existing.PaymentKey = payment.PaymentKey
			if err := tx.SavePurchase(existing); err != nil {
				return err
			}
			if err := tx.UpsertAccessGrant(&models.UserContent{
				UserID:    existing.UserID,
				ContentID: existing.ContentID,
				Source:    models.AccessSourcePurchased,
			}); err != nil {
				return err
			}
			if err := tx.AccrueCredit(existing.UserID, existing.Amount); err != nil {
				return err
			}
			result = existing
			return nil
		}
		if !IsNotFound(err) {
			return err
		}

		purchase := &models.Purchase{
			UserID:     userID,
			ContentID:  contentID,
			Amount:     payment.TotalAmount,
			Currency:   payment.Currency,
			Provider:   models.PaymentProviderToss,
			OrderID:    payment.OrderID,
			PaymentKey: payment.PaymentKey,
			Status:     models.PurchaseStatusCompleted,
		}
		if err := tx.CreatePurchase(purchase); err != nil {
			return err
		}
		if err := tx.UpsertAccessGrant(&models.UserContent{
			UserID:    userID,
			ContentID: contentID,
			Source:    models.AccessSourcePurchased,
		}); err != nil {
			return err
		}
		if err := tx.AccrueCredit(userID, payment.TotalAmount); err != nil {
			return err
		}
		result = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ActivationInput carries the subscription activation parameters. BillingKey
// and CustomerKey are set when the checkout went through billing-key auth.
type ActivationInput struct {
	UserID      uint
	Plan        string
	Payment     *Payment
	BillingKey  string
	CustomerKey string
}

// ActivateSubscription upserts the per-user subscription row: status active,
// period [now, now+1 month), any prior past_due state cleared.
func (s *Service) ActivateSubscription(ctx context.Context, in ActivationInput) (*models.Subscription, error) {
	_ = ctx
	if in.UserID == 0 || NormalizePlan(in.Plan) == "" || in.Plan == models.PlanSingle {
		return nil, ErrInvalidPlanConfiguration
	}

	now := s.now()
	periodEnd := now.AddDate(0, 1, 0)
	sub := &models.Subscription{
		UserID:             in.UserID,
		Plan:               NormalizePlan(in.Plan),
		Status:             models.SubscriptionStatusActive,
		Provider:           models.PaymentProviderToss,
		Currency:           in.Payment.Currency,
		BillingKey:         in.BillingKey,
		CustomerKey:        in.CustomerKey,
		PaymentKey:         in.Payment.PaymentKey,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
		CancelAtPeriodEnd:  false,
		CancelReason:       "",
		CanceledAt:         nil,
		RenewalFailures:    0,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecordWebhookEvent persists webhook payloads idempotently. Deliveries
// without a provider event id are deduplicated by payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		provider = models.PaymentProviderToss
	}
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// WebhookOutcome reports how IngestWebhook handled a delivery.
type WebhookOutcome struct {
	Duplicate bool
	Event     *models.WebhookEvent
	ApplyErr  error
}

// IngestWebhook is the single entry point for inbound webhook deliveries.
// The signature gate runs before anything is persisted: a forged delivery
// must not occupy the (provider, event id) dedup slot, or a later genuine
// retry would be acknowledged as a duplicate without ever being applied.
func (s *Service) IngestWebhook(ctx context.Context, in WebhookInput) (*WebhookOutcome, error) {
	if !in.SignatureValid {
		return nil, ErrInvalidSignature
	}

	created, stored, err := s.RecordWebhookEvent(ctx, in)
	if err != nil {
		return nil, err
	}
	if !created {
		return &WebhookOutcome{Duplicate: true, Event: stored}, nil
	}

	applyErr := s.ApplyWebhook(ctx, in)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, applyErr); err != nil {
		log.Printf("webhook: failed to mark event %d processed: %v", stored.ID, err)
	}
	return &WebhookOutcome{Event: stored, ApplyErr: applyErr}, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return fmt.Errorf("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ApplyWebhook applies the state transition an already-recorded webhook
// event describes. Handlers are safely re-appliable: status sets are
// idempotent and guarded by the purchase state machine.
func (s *Service) ApplyWebhook(ctx context.Context, in WebhookInput) error {
	switch strings.ToUpper(strings.TrimSpace(in.EventType)) {
	case EventDepositCallback:
		return s.applyDepositCallback(ctx, in)
	case EventPaymentStatusChanged, "":
		return s.applyStatusChange(ctx, in)
	default:
		log.Printf("webhook: ignoring event type %q order=%s", in.EventType, in.OrderID)
		return nil
	}
}

func (s *Service) applyStatusChange(ctx context.Context, in WebhookInput) error {
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	switch status {
	case PaymentStatusCanceled:
		return s.applyCancellation(ctx, in)
	case PaymentStatusPartialCanceled:
		return s.transitionPurchase(in.PaymentKey, models.PurchaseStatusPartiallyRefunded)
	case PaymentStatusAborted:
		return s.transitionPurchase(in.PaymentKey, models.PurchaseStatusAborted)
	case PaymentStatusExpired:
		return s.transitionPurchase(in.PaymentKey, models.PurchaseStatusExpired)
	case PaymentStatusDone:
		// Reactivation signal for a past_due subscription paid out-of-band.
		return s.reactivateSubscription(in.PaymentKey)
	default:
		log.Printf("webhook: ignoring payment status %q order=%s", in.Status, in.OrderID)
		return nil
	}
}

// applyCancellation flips the matching purchase to refunded (revoking its
// grant) or the matching subscription to canceled.
func (s *Service) applyCancellation(ctx context.Context, in WebhookInput) error {
	_ = ctx
	purchase, err := s.repo.GetPurchaseByPaymentKey(in.PaymentKey)
	if err == nil {
		if !purchase.CanTransitionTo(models.PurchaseStatusRefunded) {
			log.Printf("webhook: purchase %s in status %s cannot be refunded", purchase.OrderID, purchase.Status)
			return nil
		}
		return s.repo.Transaction(func(tx Repository) error {
			if err := tx.UpdatePurchaseStatus(purchase.ID, models.PurchaseStatusRefunded); err != nil {
				return err
			}
			return tx.RevokeAccessGrant(purchase.UserID, purchase.ContentID)
		})
	}
	if !IsNotFound(err) {
		return err
	}

	sub, err := s.repo.GetSubscriptionByPaymentKey(in.PaymentKey)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: payment_key=%s", ErrNotFound, in.PaymentKey)
		}
		return err
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return nil
	}
	now := s.now()
	sub.Status = models.SubscriptionStatusCanceled
	sub.CancelReason = strings.TrimSpace(in.CancelReason)
	if sub.CancelReason == "" {
		sub.CancelReason = "provider_canceled"
	}
	sub.CanceledAt = &now
	sub.BillingKey = ""
	return s.repo.SaveSubscription(sub)
}

// applyDepositCallback settles delayed payment methods (virtual accounts):
// a successful deposit flips the pending purchase to completed and applies
// the grant and credit that were deferred at confirm time.
func (s *Service) applyDepositCallback(ctx context.Context, in WebhookInput) error {
	_ = ctx
	purchase, err := s.repo.GetPurchaseByOrderID(in.OrderID)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: order_id=%s", ErrNotFound, in.OrderID)
		}
		return err
	}

	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status == PaymentStatusCanceled {
		if purchase.CanTransitionTo(models.PurchaseStatusFailed) {
			return s.repo.UpdatePurchaseStatus(purchase.ID, models.PurchaseStatusFailed)
		}
		return nil
	}
	if status != PaymentStatusDone {
		log.Printf("webhook: deposit callback with status %q order=%s ignored", in.Status, in.OrderID)
		return nil
	}
	if purchase.Status == models.PurchaseStatusCompleted {
		return nil
	}
	if !purchase.CanTransitionTo(models.PurchaseStatusCompleted) {
		log.Printf("webhook: purchase %s in status %s cannot complete deposit", purchase.OrderID, purchase.Status)
		return nil
	}

	return s.repo.Transaction(func(tx Repository) error {
		if err := tx.UpdatePurchaseStatus(purchase.ID, models.PurchaseStatusCompleted); err != nil {
			return err
		}
		if err := tx.UpsertAccessGrant(&models.UserContent{
			UserID:    purchase.UserID,
			ContentID: purchase.ContentID,
			Source:    models.AccessSourcePurchased,
		}); err != nil {
			return err
		}
		return tx.AccrueCredit(purchase.UserID, purchase.Amount)
	})
}

func (s *Service) transitionPurchase(paymentKey, next string) error {
	purchase, err := s.repo.GetPurchaseByPaymentKey(paymentKey)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: payment_key=%s", ErrNotFound, paymentKey)
		}
		return err
	}
	if !purchase.CanTransitionTo(next) {
		log.Printf("webhook: purchase %s in status %s cannot move to %s", purchase.OrderID, purchase.Status, next)
		return nil
	}
	if purchase.Status == next {
		return nil
	}
	return s.repo.UpdatePurchaseStatus(purchase.ID, next)
}

func (s *Service) reactivateSubscription(paymentKey string) error {
	sub, err := s.repo.GetSubscriptionByPaymentKey(paymentKey)
	if err != nil {
		if IsNotFound(err) {
			// DONE events for one-time payments arrive here too; nothing to do.
			return nil
		}
		return err
	}
	if sub.Status != models.SubscriptionStatusPastDue {
		return nil
	}
	sub.Status = models.SubscriptionStatusActive
	sub.RenewalFailures = 0
	return s.repo.SaveSubscription(sub)
}
