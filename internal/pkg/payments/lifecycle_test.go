package payments

import (
	"context"
	"testing"
	"time"

	"github.com/vibestack/vibestack/app/models"
)

// sweepClock pins the sweep's view of "today" so period-end seeds never
// straddle the end-of-day cutoff, whatever wall-clock time the tests run at.
var sweepClock = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newSweepService(repo *fakeRepository, provider *fakeProvider) *Service {
	svc := newTestService(repo, provider)
	svc.now = func() time.Time { return sweepClock }
	return svc
}

func seedActiveSubscription(repo *fakeRepository, userID uint, periodEnd time.Time) *models.Subscription {
	start := periodEnd.AddDate(0, -1, 0)
	sub := &models.Subscription{
		UserID: userID, Plan: models.PlanPro,
		Status: models.SubscriptionStatusActive, Provider: models.PaymentProviderToss,
		Currency: CurrencyKRW, BillingKey: "bk_test", CustomerKey: "cust_test",
		PaymentKey:         "pay_initial",
		CurrentPeriodStart: &start, CurrentPeriodEnd: &periodEnd,
	}
	_ = repo.UpsertSubscription(sub)
	return repo.subscriptions[userID]
}

func TestRenewalSweepAdvancesPeriod(t *testing.T) {
	repo := newFakeRepository()
	periodEnd := sweepClock.Add(2 * time.Hour)
	seedActiveSubscription(repo, 1, periodEnd)
	svc := newSweepService(repo, &fakeProvider{})

	report, err := svc.RunRenewalSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if report.Total != 1 || report.Renewed != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	sub := repo.subscriptions[1]
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active after renewal, got %s", sub.Status)
	}
	if !sub.CurrentPeriodStart.Equal(periodEnd) {
		t.Fatalf("expected new period start at old period end, got %v", sub.CurrentPeriodStart)
	}
	want := sub.CurrentPeriodStart.AddDate(0, 1, 0)
	if !sub.CurrentPeriodEnd.Equal(want) {
		t.Fatalf("expected period end exactly one month after start, got %v", sub.CurrentPeriodEnd)
	}
	if sub.PaymentKey == "pay_initial" {
		t.Fatalf("expected new payment reference after renewal")
	}
}

func TestRenewalSweepIgnoresFuturePeriods(t *testing.T) {
	repo := newFakeRepository()
	seedActiveSubscription(repo, 1, sweepClock.AddDate(0, 0, 1))
	provider := &fakeProvider{}
	svc := newSweepService(repo, provider)

	report, err := svc.RunRenewalSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if report.Total != 0 || provider.chargeCalls != 0 {
		t.Fatalf("expected tomorrow's period end to be left alone, got %+v", report)
	}
}

func TestRenewalSweepFailureMovesToPastDue(t *testing.T) {
	repo := newFakeRepository()
	seedActiveSubscription(repo, 1, sweepClock.Add(time.Hour))
	provider := &fakeProvider{chargePayment: &Payment{Status: PaymentStatusAborted}}
	svc := newSweepService(repo, provider)

	report, err := svc.RunRenewalSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if report.Failed != 1 || report.Renewed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	sub := repo.subscriptions[1]
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due after failed charge, got %s", sub.Status)
	}
	if sub.RenewalFailures != 1 {
		t.Fatalf("expected one recorded failure, got %d", sub.RenewalFailures)
	}
}

func TestDunningCancelsAfterMaxFailures(t *testing.T) {
	repo := newFakeRepository()
	sub := seedActiveSubscription(repo, 1, sweepClock.Add(time.Hour))
	sub.Status = models.SubscriptionStatusPastDue
	sub.RenewalFailures = maxRenewalFailures - 1
	provider := &fakeProvider{chargePayment: &Payment{Status: PaymentStatusAborted}}
	svc := newSweepService(repo, provider)

	if _, err := svc.RunRenewalSweep(context.Background()); err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}

	got := repo.subscriptions[1]
	if got.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled after dunning exhaustion, got %s", got.Status)
	}
	if got.CancelReason != CancelReasonDunningExhausted {
		t.Fatalf("expected dunning cancel reason, got %q", got.CancelReason)
	}
	if got.BillingKey != "" {
		t.Fatalf("expected billing key cleared on termination")
	}
	if len(provider.deletedBillingKeys) != 1 {
		t.Fatalf("expected provider billing key deletion, got %v", provider.deletedBillingKeys)
	}
}

func TestSweepSkipsDeferredCancels(t *testing.T) {
	repo := newFakeRepository()
	sub := seedActiveSubscription(repo, 1, sweepClock.Add(time.Hour))
	sub.CancelAtPeriodEnd = true
	provider := &fakeProvider{}
	svc := newSweepService(repo, provider)

	report, err := svc.RunRenewalSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}
	if report.Total != 0 {
		t.Fatalf("expected deferred-cancel subscription to be skipped, got %+v", report)
	}
	if provider.chargeCalls != 0 {
		t.Fatalf("expected no charge attempts, got %d", provider.chargeCalls)
	}
}

func TestTerminalSweepClosesLapsedDeferredCancels(t *testing.T) {
	repo := newFakeRepository()
	sub := seedActiveSubscription(repo, 1, sweepClock.AddDate(0, 0, -2))
	sub.CancelAtPeriodEnd = true
	sub.BillingKey = "" // renewal-ineligible, only the terminal pass applies
	svc := newSweepService(repo, &fakeProvider{})

	if _, err := svc.RunRenewalSweep(context.Background()); err != nil {
		t.Fatalf("unexpected sweep error: %v", err)
	}

	got := repo.subscriptions[1]
	if got.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected lapsed deferred cancel to be closed, got %s", got.Status)
	}
	if got.CancelReason != CancelReasonPeriodEnded {
		t.Fatalf("expected period_ended reason, got %q", got.CancelReason)
	}
}

func TestCancelImmediately(t *testing.T) {
	repo := newFakeRepository()
	seedActiveSubscription(repo, 1, sweepClock.AddDate(0, 0, 20))
	provider := &fakeProvider{}
	svc := newSweepService(repo, provider)

	sub, err := svc.CancelImmediately(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled, got %s", sub.Status)
	}
	if sub.BillingKey != "" {
		t.Fatalf("expected billing key cleared")
	}
	if sub.CanceledAt == nil {
		t.Fatalf("expected canceled_at timestamp")
	}
	if sub.CancelReason != CancelReasonUserRequested {
		t.Fatalf("expected default cancel reason, got %q", sub.CancelReason)
	}
	if len(provider.deletedBillingKeys) != 1 || provider.deletedBillingKeys[0] != "bk_test" {
		t.Fatalf("expected billing key delete call, got %v", provider.deletedBillingKeys)
	}
}

func TestCancelImmediatelySurvivesProviderFailure(t *testing.T) {
	repo := newFakeRepository()
	seedActiveSubscription(repo, 1, sweepClock.AddDate(0, 0, 20))
	provider := &fakeProvider{deleteErr: ErrProviderRejected}
	svc := newSweepService(repo, provider)

	sub, err := svc.CancelImmediately(context.Background(), 1, "moving on")
	if err != nil {
		t.Fatalf("billing key delete failure must not block cancellation: %v", err)
	}
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled, got %s", sub.Status)
	}
	if sub.CancelReason != "moving on" {
		t.Fatalf("expected recorded reason, got %q", sub.CancelReason)
	}
}

func TestCancelAtPeriodEnd(t *testing.T) {
	repo := newFakeRepository()
	seedActiveSubscription(repo, 1, sweepClock.AddDate(0, 0, 20))
	svc := newSweepService(repo, &fakeProvider{})

	sub, err := svc.CancelAtPeriodEnd(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.CancelAtPeriodEnd {
		t.Fatalf("expected cancel_at_period_end flag")
	}
	if sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("deferred cancel must keep subscription active, got %s", sub.Status)
	}
}
