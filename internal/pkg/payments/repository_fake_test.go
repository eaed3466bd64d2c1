package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibestack/vibestack/app/models"
)

// Wraps ErrNotFound so IsNotFound recognizes the fake's misses.
var errFakeNotFound = fmt.Errorf("fake repository: %w", ErrNotFound)

// fakeRepository is an in-memory Repository for service tests.
type fakeRepository struct {
	users         map[uint]*models.User
	contents      map[uint]*models.Content
	purchases     []*models.Purchase
	grants        map[[2]uint]*models.UserContent
	subscriptions map[uint]*models.Subscription
	webhookEvents map[string]*models.WebhookEvent

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:         make(map[uint]*models.User),
		contents:      make(map[uint]*models.Content),
		grants:        make(map[[2]uint]*models.UserContent),
		subscriptions: make(map[uint]*models.Subscription),
		webhookEvents: make(map[string]*models.WebhookEvent),
	}
}

func (r *fakeRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *fakeRepository) GetUser(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) GetContent(id uint) (*models.Content, error) {
	if c, ok := r.contents[id]; ok {
		return c, nil
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) GetPurchaseByOrderID(orderID string) (*models.Purchase, error) {
	for _, p := range r.purchases {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) GetPurchaseByPaymentKey(paymentKey string) (*models.Purchase, error) {
	for _, p := range r.purchases {
		if p.PaymentKey == paymentKey {
			return p, nil
		}
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) CreatePurchase(p *models.Purchase) error {
	for _, existing := range r.purchases {
		if existing.OrderID == p.OrderID {
			return errors.New("fake repository: duplicate order_id")
		}
	}
	p.ID = r.id()
	r.purchases = append(r.purchases, p)
	return nil
}

func (r *fakeRepository) SavePurchase(p *models.Purchase) error {
	for i, existing := range r.purchases {
		if existing.ID == p.ID {
			stored := *p
			r.purchases[i] = &stored
			return nil
		}
	}
	return errFakeNotFound
}

func (r *fakeRepository) UpdatePurchaseStatus(id uint, status string) error {
	for _, p := range r.purchases {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return errFakeNotFound
}

func (r *fakeRepository) UpsertAccessGrant(grant *models.UserContent) error {
	key := [2]uint{grant.UserID, grant.ContentID}
	if existing, ok := r.grants[key]; ok {
		existing.Source = grant.Source
		existing.ExpiresAt = grant.ExpiresAt
		existing.RevokedAt = grant.RevokedAt
		*grant = *existing
		return nil
	}
	grant.ID = r.id()
	stored := *grant
	r.grants[key] = &stored
	return nil
}

func (r *fakeRepository) GetAccessGrant(userID, contentID uint) (*models.UserContent, error) {
	if g, ok := r.grants[[2]uint{userID, contentID}]; ok {
		return g, nil
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) RevokeAccessGrant(userID, contentID uint) error {
	if g, ok := r.grants[[2]uint{userID, contentID}]; ok {
		now := time.Now()
		g.RevokedAt = &now
	}
	return nil
}

func (r *fakeRepository) AccrueCredit(userID uint, amount int64) error {
	if u, ok := r.users[userID]; ok {
		u.CreditBalance += amount
	}
	return nil
}

func (r *fakeRepository) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	if s, ok := r.subscriptions[userID]; ok {
		return s, nil
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) GetSubscriptionByPaymentKey(paymentKey string) (*models.Subscription, error) {
	for _, s := range r.subscriptions {
		if s.PaymentKey == paymentKey {
			return s, nil
		}
	}
	return nil, errFakeNotFound
}

func (r *fakeRepository) UpsertSubscription(sub *models.Subscription) error {
	if existing, ok := r.subscriptions[sub.UserID]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = r.id()
	}
	stored := *sub
	r.subscriptions[sub.UserID] = &stored
	return nil
}

func (r *fakeRepository) SaveSubscription(sub *models.Subscription) error {
	stored := *sub
	r.subscriptions[sub.UserID] = &stored
	return nil
}

func (r *fakeRepository) ListRenewalCandidates(endOfDay time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subscriptions {
		if s.Status != models.SubscriptionStatusActive && s.Status != models.SubscriptionStatusPastDue {
			continue
		}
		if s.CancelAtPeriodEnd || s.BillingKey == "" || s.CurrentPeriodEnd == nil {
			continue
		}
		if s.CurrentPeriodEnd.After(endOfDay) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeRepository) ListLapsedDeferredCancels(now time.Time) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range r.subscriptions {
		if s.Status != models.SubscriptionStatusActive || !s.CancelAtPeriodEnd {
			continue
		}
		if s.CurrentPeriodEnd == nil || !s.CurrentPeriodEnd.Before(now) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if stored, ok := r.webhookEvents[key]; ok {
		return false, stored, nil
	}
	event.ID = r.id()
	stored := *event
	r.webhookEvents[key] = &stored
	return true, &stored, nil
}

func (r *fakeRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	for _, e := range r.webhookEvents {
		if e.ID == id {
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return errFakeNotFound
}

func (r *fakeRepository) Transaction(fn func(Repository) error) error {
	return fn(r)
}

// fakeProvider scripts provider responses for service tests.
type fakeProvider struct {
	confirmPayment *Payment
	confirmErr     error
	chargePayment  *Payment
	chargeErr      error
	issueErr       error

	issuedAuthKeys     []string
	deletedBillingKeys []string
	deleteErr          error
	chargeCalls        int
}

func (p *fakeProvider) ConfirmPayment(_ context.Context, paymentKey, orderID string, amount int64) (*Payment, error) {
	if p.confirmErr != nil {
		return nil, p.confirmErr
	}
	if p.confirmPayment != nil {
		return p.confirmPayment, nil
	}
	return &Payment{
		PaymentKey:  paymentKey,
		OrderID:     orderID,
		Status:      PaymentStatusDone,
		TotalAmount: amount,
		Currency:    CurrencyKRW,
	}, nil
}

func (p *fakeProvider) IssueBillingKey(_ context.Context, authKey, customerKey string) (string, error) {
	p.issuedAuthKeys = append(p.issuedAuthKeys, authKey)
	if p.issueErr != nil {
		return "", p.issueErr
	}
	return "bk_" + authKey, nil
}

func (p *fakeProvider) ChargeBillingKey(_ context.Context, req BillingChargeRequest) (*Payment, error) {
	p.chargeCalls++
	if p.chargeErr != nil {
		return nil, p.chargeErr
	}
	if p.chargePayment != nil {
		return p.chargePayment, nil
	}
	return &Payment{
		PaymentKey:  "pay_renewal_" + req.OrderID,
		OrderID:     req.OrderID,
		Status:      PaymentStatusDone,
		TotalAmount: req.Amount,
		Currency:    req.Currency,
	}, nil
}

func (p *fakeProvider) DeleteBillingKey(_ context.Context, billingKey string) error {
	p.deletedBillingKeys = append(p.deletedBillingKeys, billingKey)
	return p.deleteErr
}

func newTestService(repo *fakeRepository, provider *fakeProvider) *Service {
	return NewService(repo, provider)
}
