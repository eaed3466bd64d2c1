package payments

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vibestack/vibestack/app/models"
)

// maxRenewalFailures is the dunning threshold: after this many consecutive
// failed charges a subscription is terminated instead of lingering past_due.
const maxRenewalFailures = 3

const (
	CancelReasonUserRequested    = "user_requested"
	CancelReasonDunningExhausted = "dunning_exhausted"
	CancelReasonPeriodEnded      = "period_ended"
)

// SweepResult is the per-subscription outcome of a renewal sweep run.
type SweepResult struct {
	UserID  uint   `json:"userId"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Renewed int           `json:"renewed"`
	Failed  int           `json:"failed"`
	Total   int           `json:"total"`
	Results []SweepResult `json:"results"`
}

// RunRenewalSweep charges every subscription whose billing period ends today
// and still holds a billing key. It also terminates dunning-exhausted
// past_due subscriptions and flips lapsed deferred cancellations to
// canceled. Invoked by an external time-based trigger via the sweep endpoint.
func (s *Service) RunRenewalSweep(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	subs, err := s.repo.ListRenewalCandidates(endOfDay)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Results: make([]SweepResult, 0, len(subs))}
	for i := range subs {
		sub := subs[i]
		report.Total++
		if err := s.renewOne(ctx, &sub); err != nil {
			report.Failed++
			report.Results = append(report.Results, SweepResult{UserID: sub.UserID, Error: err.Error()})
			continue
		}
		report.Renewed++
		report.Results = append(report.Results, SweepResult{UserID: sub.UserID, Success: true})
	}

	if err := s.sweepLapsedDeferredCancels(now); err != nil {
		log.Printf("renewal sweep: terminal pass failed: %v", err)
	}

	return report, nil
}

// renewOne charges one subscription. Success advances the period by one
// month from the previous period end; failure moves it to past_due and,
// once the dunning threshold is reached, cancels it.
func (s *Service) renewOne(ctx context.Context, sub *models.Subscription) error {
	amount, err := PriceFor(sub.Plan, sub.Currency)
	if err != nil {
		return err
	}

	payment, chargeErr := s.provider.ChargeBillingKey(ctx, BillingChargeRequest{
		BillingKey:  sub.BillingKey,
		CustomerKey: sub.CustomerKey,
		OrderID:     NewOrderID(),
		OrderName:   fmt.Sprintf("VibeStack %s renewal", sub.Plan),
		Amount:      amount,
		Currency:    sub.Currency,
	})
	if chargeErr == nil && payment.Status != PaymentStatusDone {
		chargeErr = fmt.Errorf("%w: status=%s", ErrProviderRejected, payment.Status)
	}
	if chargeErr != nil {
		log.Printf("renewal charge failed for subscription %d (user %d): %v", sub.ID, sub.UserID, chargeErr)

		sub.Status = models.SubscriptionStatusPastDue
		sub.RenewalFailures++
		if sub.RenewalFailures >= maxRenewalFailures {
			s.terminate(ctx, sub, CancelReasonDunningExhausted)
		}
		if err := s.repo.SaveSubscription(sub); err != nil {
			return err
		}
		return chargeErr
	}

	start := s.now()
	if sub.CurrentPeriodEnd != nil {
		start = *sub.CurrentPeriodEnd
	}
	end := start.AddDate(0, 1, 0)

	sub.Status = models.SubscriptionStatusActive
	sub.PaymentKey = payment.PaymentKey
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	sub.RenewalFailures = 0
	return s.repo.SaveSubscription(sub)
}

// sweepLapsedDeferredCancels closes the gap where cancel_at_period_end
// subscriptions were never flipped once their period lapsed.
func (s *Service) sweepLapsedDeferredCancels(now time.Time) error {
	subs, err := s.repo.ListLapsedDeferredCancels(now)
	if err != nil {
		return err
	}
	for i := range subs {
		sub := subs[i]
		s.terminate(context.Background(), &sub, CancelReasonPeriodEnded)
		if err := s.repo.SaveSubscription(&sub); err != nil {
			log.Printf("terminal sweep: failed to persist cancellation for subscription %d: %v", sub.ID, err)
		}
	}
	return nil
}

// CancelImmediately terminates the user's subscription now. The provider
// billing-key delete is best-effort: its failure never blocks the local
// cancellation.
func (s *Service) CancelImmediately(ctx context.Context, userID uint, reason string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: user_id=%d", ErrNotFound, userID)
		}
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return sub, nil
	}

	if reason == "" {
		reason = CancelReasonUserRequested
	}
	s.terminate(ctx, sub, reason)
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelAtPeriodEnd defers the cancellation: the subscription stays active
// until its natural period end and is then closed by the terminal sweep.
func (s *Service) CancelAtPeriodEnd(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByUser(userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: user_id=%d", ErrNotFound, userID)
		}
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return sub, nil
	}
	sub.CancelAtPeriodEnd = true
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// terminate mutates sub to the canceled terminal state and releases the
// provider billing key. Persisting is left to the caller.
func (s *Service) terminate(ctx context.Context, sub *models.Subscription, reason string) {
	if sub.BillingKey != "" {
		if err := s.provider.DeleteBillingKey(ctx, sub.BillingKey); err != nil {
			log.Printf("failed to delete billing key for subscription %d: %v", sub.ID, err)
		}
	}
	now := s.now()
	sub.Status = models.SubscriptionStatusCanceled
	sub.BillingKey = ""
	sub.CancelReason = reason
	sub.CanceledAt = &now
}
