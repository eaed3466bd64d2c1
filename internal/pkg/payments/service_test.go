package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vibestack/vibestack/app/models"
)

func TestConfirmCallbackMissingParameters(t *testing.T) {
	svc := newTestService(newFakeRepository(), &fakeProvider{})

	tests := []ConfirmParams{
		{OrderID: "ord_1", Amount: 1000, UserID: 1, Plan: "pro"},                           // no payment key
		{PaymentKey: "pay_1", Amount: 1000, UserID: 1, Plan: "pro"},                        // no order id
		{PaymentKey: "pay_1", OrderID: "ord_1", UserID: 1, Plan: "pro"},                    // no amount
		{PaymentKey: "pay_1", OrderID: "ord_1", Amount: 1000, Plan: "pro"},                 // no user
		{PaymentKey: "pay_1", OrderID: "ord_1", Amount: 1000, UserID: 1, Plan: "gold"},     // bad plan
		{PaymentKey: "pay_1", OrderID: "ord_1", Amount: 1000, UserID: 1, Plan: "single"},   // single without content
		{PaymentKey: "pay_1", OrderID: "ord_1", Amount: 1000, UserID: 1, Plan: "pro"},      // subscription without billing auth
		{PaymentKey: "pay_1", OrderID: "ord_1", Amount: 1000, UserID: 1, Plan: "pro",
			AuthKey: "auth_1"}, // billing auth without customer key
	}

	for i, params := range tests {
		if _, err := svc.ConfirmCallback(context.Background(), params); !errors.Is(err, ErrMissingCallbackParameters) {
			t.Fatalf("case %d: expected ErrMissingCallbackParameters, got %v", i, err)
		}
	}
}

func TestConfirmCallbackProviderRejected(t *testing.T) {
	provider := &fakeProvider{confirmPayment: &Payment{
		PaymentKey: "pay_1", OrderID: "ord_1", Status: PaymentStatusAborted,
	}}
	svc := newTestService(newFakeRepository(), provider)

	_, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_1", OrderID: "ord_1", Amount: 15000, UserID: 1, Plan: "pro",
	})
	if !errors.Is(err, ErrProviderRejected) {
		t.Fatalf("expected ErrProviderRejected, got %v", err)
	}
}

func TestConfirmSinglePurchaseIdempotent(t *testing.T) {
	repo := newFakeRepository()
	repo.users[2] = &models.User{ID: 2}
	repo.contents[5] = &models.Content{ID: 5, Premium: true}
	svc := newTestService(repo, &fakeProvider{})

	params := ConfirmParams{
		PaymentKey: "pay_abc", OrderID: "ord_abc", Amount: 15000,
		UserID: 2, Plan: "single", ContentID: 5,
	}

	first, err := svc.ConfirmCallback(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}
	second, err := svc.ConfirmCallback(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error on repeated confirm: %v", err)
	}

	if len(repo.purchases) != 1 {
		t.Fatalf("expected exactly one purchase row, got %d", len(repo.purchases))
	}
	if first.Purchase.ID != second.Purchase.ID {
		t.Fatalf("expected repeated confirm to return the stored purchase")
	}
	if repo.purchases[0].Status != models.PurchaseStatusCompleted {
		t.Fatalf("expected purchase status completed, got %s", repo.purchases[0].Status)
	}

	grant, err := repo.GetAccessGrant(2, 5)
	if err != nil {
		t.Fatalf("expected access grant for (2,5): %v", err)
	}
	if grant.Source != models.AccessSourcePurchased {
		t.Fatalf("expected purchased grant, got %s", grant.Source)
	}
	if len(repo.grants) != 1 {
		t.Fatalf("expected exactly one grant, got %d", len(repo.grants))
	}

	// Credit accrues once, not twice.
	if repo.users[2].CreditBalance != 15000 {
		t.Fatalf("expected credit balance 15000, got %d", repo.users[2].CreditBalance)
	}
}

func TestConfirmSubscriptionActivation(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{}
	svc := newTestService(repo, provider)

	result, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_sub", OrderID: "ord_sub", Amount: 19000, UserID: 7, Plan: "pro",
		AuthKey: "auth_7", CustomerKey: "cust_7",
	})
	if err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}

	sub := result.Subscription
	if sub == nil {
		t.Fatalf("expected subscription in result")
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active subscription, got %s", sub.Status)
	}
	if sub.CurrentPeriodStart == nil || sub.CurrentPeriodEnd == nil {
		t.Fatalf("expected billing period to be set")
	}
	want := sub.CurrentPeriodStart.AddDate(0, 1, 0)
	if !sub.CurrentPeriodEnd.Equal(want) {
		t.Fatalf("expected period end %v, got %v", want, sub.CurrentPeriodEnd)
	}
	if sub.BillingKey != "bk_auth_7" {
		t.Fatalf("expected issued billing key to be stored, got %q", sub.BillingKey)
	}
	if sub.CustomerKey != "cust_7" {
		t.Fatalf("expected customer key to be stored, got %q", sub.CustomerKey)
	}
	if len(provider.issuedAuthKeys) != 1 || provider.issuedAuthKeys[0] != "auth_7" {
		t.Fatalf("expected one billing key exchange for auth_7, got %v", provider.issuedAuthKeys)
	}
}

func TestConfirmSubscriptionIssueFailureBlocksActivation(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeProvider{issueErr: ErrProviderRejected})

	_, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_sub", OrderID: "ord_sub", Amount: 19000, UserID: 7, Plan: "pro",
		AuthKey: "auth_7", CustomerKey: "cust_7",
	})
	if !errors.Is(err, ErrProviderRejected) {
		t.Fatalf("expected issue failure to surface, got %v", err)
	}
	if len(repo.subscriptions) != 0 {
		t.Fatalf("expected no subscription without a billing key")
	}
}

// A subscription activated through the confirmation redirect must be
// chargeable by the renewal sweep once its period lapses.
func TestConfirmedSubscriptionRenewsInSweep(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{}
	svc := newTestService(repo, provider)
	activatedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return activatedAt }

	if _, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_sub", OrderID: "ord_sub", Amount: 19000, UserID: 7, Plan: "pro",
		AuthKey: "auth_7", CustomerKey: "cust_7",
	}); err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}

	svc.now = func() time.Time { return activatedAt.AddDate(0, 1, 0) }
	report, err := svc.RunRenewalSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if report.Total != 1 || report.Renewed != 1 {
		t.Fatalf("expected the subscription to be swept and renewed, got %+v", report)
	}
	if provider.chargeCalls != 1 {
		t.Fatalf("expected exactly one renewal charge, got %d", provider.chargeCalls)
	}
	sub := repo.subscriptions[7]
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(activatedAt.AddDate(0, 2, 0)) {
		t.Fatalf("expected period advanced one month, got %v", sub.CurrentPeriodEnd)
	}
}

func TestActivationClearsPastDue(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions[7] = &models.Subscription{
		ID: 1, UserID: 7, Plan: "pro",
		Status: models.SubscriptionStatusPastDue, RenewalFailures: 2,
	}
	svc := newTestService(repo, &fakeProvider{})

	sub, err := svc.ActivateSubscription(context.Background(), ActivationInput{
		UserID: 7, Plan: "pro",
		Payment: &Payment{PaymentKey: "pay_new", Currency: CurrencyKRW},
	})
	if err != nil {
		t.Fatalf("unexpected activation error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active, got %s", sub.Status)
	}
	if sub.RenewalFailures != 0 {
		t.Fatalf("expected failure counter reset, got %d", sub.RenewalFailures)
	}
}

func TestWebhookEventDeduplication(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &fakeProvider{})

	in := WebhookInput{EventID: "evt_1", EventType: EventPaymentStatusChanged, PayloadJSON: `{"a":1}`, SignatureValid: true}

	created, stored, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("expected first delivery to create event, created=%v err=%v", created, err)
	}
	if !stored.SignatureValid {
		t.Fatalf("expected the verification result to be recorded")
	}
	created2, stored2, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error on duplicate delivery: %v", err)
	}
	if created2 {
		t.Fatalf("expected duplicate delivery to be detected")
	}
	if stored.ID != stored2.ID {
		t.Fatalf("expected the stored event to be returned for duplicates")
	}
}

// A delivery failing signature verification must leave no trace: if it were
// recorded, the provider's genuine retry of the same event id would be acked
// as a duplicate and the state change would be lost.
func TestIngestWebhookForgedDeliveryLeavesNoTrace(t *testing.T) {
	repo := newFakeRepository()
	repo.users[2] = &models.User{ID: 2}
	repo.contents[5] = &models.Content{ID: 5, Premium: true}
	svc := newTestService(repo, &fakeProvider{})

	if _, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_target", OrderID: "ord_target", Amount: 15000,
		UserID: 2, Plan: "single", ContentID: 5,
	}); err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}

	cancel := WebhookInput{
		EventID:    "evt_cancel_1",
		EventType:  EventPaymentStatusChanged,
		PaymentKey: "pay_target",
		Status:     PaymentStatusCanceled,
	}

	if _, err := svc.IngestWebhook(context.Background(), cancel); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(repo.webhookEvents) != 0 {
		t.Fatalf("forged delivery must not occupy the dedup slot, got %d events", len(repo.webhookEvents))
	}
	if repo.purchases[0].Status != models.PurchaseStatusCompleted {
		t.Fatalf("forged delivery must not change state, got %s", repo.purchases[0].Status)
	}

	// The provider's retry with a valid signature still applies in full.
	cancel.SignatureValid = true
	outcome, err := svc.IngestWebhook(context.Background(), cancel)
	if err != nil {
		t.Fatalf("unexpected ingest error: %v", err)
	}
	if outcome.Duplicate || outcome.ApplyErr != nil {
		t.Fatalf("expected retry to be applied, got %+v", outcome)
	}
	if repo.purchases[0].Status != models.PurchaseStatusRefunded {
		t.Fatalf("expected refund applied on retry, got %s", repo.purchases[0].Status)
	}
}

func TestIngestWebhookDuplicateDeliveryAcked(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions[9] = &models.Subscription{
		ID: 3, UserID: 9, Plan: "team",
		Status: models.SubscriptionStatusActive, PaymentKey: "pay_sub_9", BillingKey: "bk_9",
	}
	svc := newTestService(repo, &fakeProvider{})

	in := WebhookInput{
		EventID:        "evt_cancel_9",
		EventType:      EventPaymentStatusChanged,
		PaymentKey:     "pay_sub_9",
		Status:         PaymentStatusCanceled,
		SignatureValid: true,
	}

	first, err := svc.IngestWebhook(context.Background(), in)
	if err != nil || first.Duplicate {
		t.Fatalf("expected first delivery to apply, outcome=%+v err=%v", first, err)
	}
	second, err := svc.IngestWebhook(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected ingest error on redelivery: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected redelivery to be detected as duplicate")
	}
	if len(repo.webhookEvents) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(repo.webhookEvents))
	}
}

func TestWebhookRefundRevokesGrant(t *testing.T) {
	repo := newFakeRepository()
	repo.users[2] = &models.User{ID: 2}
	repo.contents[5] = &models.Content{ID: 5, Premium: true}
	svc := newTestService(repo, &fakeProvider{})

	if _, err := svc.ConfirmCallback(context.Background(), ConfirmParams{
		PaymentKey: "pay_refund_me", OrderID: "ord_refund", Amount: 15000,
		UserID: 2, Plan: "single", ContentID: 5,
	}); err != nil {
		t.Fatalf("unexpected confirm error: %v", err)
	}

	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType:  EventPaymentStatusChanged,
		PaymentKey: "pay_refund_me",
		Status:     PaymentStatusCanceled,
	})
	if err != nil {
		t.Fatalf("unexpected webhook error: %v", err)
	}

	if repo.purchases[0].Status != models.PurchaseStatusRefunded {
		t.Fatalf("expected refunded purchase, got %s", repo.purchases[0].Status)
	}
	grant, err := repo.GetAccessGrant(2, 5)
	if err != nil {
		t.Fatalf("grant lookup failed: %v", err)
	}
	if grant.RevokedAt == nil {
		t.Fatalf("expected grant to be revoked after refund")
	}
}

func TestWebhookCancelsSubscriptionByPaymentKey(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions[9] = &models.Subscription{
		ID: 3, UserID: 9, Plan: "team",
		Status: models.SubscriptionStatusActive, PaymentKey: "pay_sub_9", BillingKey: "bk_9",
	}
	svc := newTestService(repo, &fakeProvider{})

	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType:    EventPaymentStatusChanged,
		PaymentKey:   "pay_sub_9",
		Status:       PaymentStatusCanceled,
		CancelReason: "chargeback",
	})
	if err != nil {
		t.Fatalf("unexpected webhook error: %v", err)
	}

	sub := repo.subscriptions[9]
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled subscription, got %s", sub.Status)
	}
	if sub.BillingKey != "" {
		t.Fatalf("expected billing key to be cleared")
	}
	if sub.CancelReason != "chargeback" {
		t.Fatalf("expected cancel reason to be recorded, got %q", sub.CancelReason)
	}
}

func TestWebhookUnknownPaymentKey(t *testing.T) {
	svc := newTestService(newFakeRepository(), &fakeProvider{})

	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType:  EventPaymentStatusChanged,
		PaymentKey: "pay_ghost",
		Status:     PaymentStatusCanceled,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWebhookDepositCallbackCompletesPending(t *testing.T) {
	repo := newFakeRepository()
	repo.users[4] = &models.User{ID: 4}
	pending := &models.Purchase{
		UserID: 4, ContentID: 8, Amount: 15000, Currency: CurrencyKRW,
		Provider: models.PaymentProviderToss,
		OrderID:  "ord_va", PaymentKey: "pay_va",
		Status: models.PurchaseStatusPending,
	}
	if err := repo.CreatePurchase(pending); err != nil {
		t.Fatalf("seed purchase failed: %v", err)
	}
	svc := newTestService(repo, &fakeProvider{})

	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType: EventDepositCallback,
		OrderID:   "ord_va",
		Status:    PaymentStatusDone,
	})
	if err != nil {
		t.Fatalf("unexpected webhook error: %v", err)
	}

	if pending.Status != models.PurchaseStatusCompleted {
		t.Fatalf("expected completed purchase, got %s", pending.Status)
	}
	if _, err := repo.GetAccessGrant(4, 8); err != nil {
		t.Fatalf("expected grant after deposit completion: %v", err)
	}
	if repo.users[4].CreditBalance != 15000 {
		t.Fatalf("expected credit accrual on deposit completion, got %d", repo.users[4].CreditBalance)
	}
}

func TestWebhookRefundedPurchaseStaysRefunded(t *testing.T) {
	repo := newFakeRepository()
	refunded := &models.Purchase{
		UserID: 4, ContentID: 8, OrderID: "ord_done", PaymentKey: "pay_done",
		Status: models.PurchaseStatusRefunded,
	}
	if err := repo.CreatePurchase(refunded); err != nil {
		t.Fatalf("seed purchase failed: %v", err)
	}
	svc := newTestService(repo, &fakeProvider{})

	// Replayed partial-cancel after a full refund must not regress status.
	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType:  EventPaymentStatusChanged,
		PaymentKey: "pay_done",
		Status:     PaymentStatusPartialCanceled,
	})
	if err != nil {
		t.Fatalf("unexpected webhook error: %v", err)
	}
	if refunded.Status != models.PurchaseStatusRefunded {
		t.Fatalf("expected status to remain refunded, got %s", refunded.Status)
	}
}

func TestWebhookDoneReactivatesPastDue(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions[11] = &models.Subscription{
		ID: 6, UserID: 11, Plan: "pro",
		Status: models.SubscriptionStatusPastDue, PaymentKey: "pay_retry", RenewalFailures: 1,
	}
	svc := newTestService(repo, &fakeProvider{})

	err := svc.ApplyWebhook(context.Background(), WebhookInput{
		EventType:  EventPaymentStatusChanged,
		PaymentKey: "pay_retry",
		Status:     PaymentStatusDone,
	})
	if err != nil {
		t.Fatalf("unexpected webhook error: %v", err)
	}
	sub := repo.subscriptions[11]
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected reactivated subscription, got %s", sub.Status)
	}
	if sub.RenewalFailures != 0 {
		t.Fatalf("expected failure counter reset, got %d", sub.RenewalFailures)
	}
}
