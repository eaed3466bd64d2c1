package payments

import (
	"context"
	"time"
)

// Provider payment status codes as reported by the confirm/charge APIs.
const (
	PaymentStatusDone            = "DONE"
	PaymentStatusCanceled        = "CANCELED"
	PaymentStatusPartialCanceled = "PARTIAL_CANCELED"
	PaymentStatusAborted         = "ABORTED"
	PaymentStatusExpired         = "EXPIRED"
	PaymentStatusWaitingDeposit  = "WAITING_FOR_DEPOSIT"
)

// Webhook event types dispatched by HandleWebhookEvent.
const (
	EventPaymentStatusChanged = "PAYMENT_STATUS_CHANGED"
	EventDepositCallback      = "DEPOSIT_CALLBACK"
)

// Payment is the provider-agnostic shape of a confirmed or charged payment.
type Payment struct {
	PaymentKey  string
	OrderID     string
	Status      string
	Method      string
	TotalAmount int64
	Currency    string
	ApprovedAt  *time.Time
}

// BillingChargeRequest carries everything needed for an off-session
// billing-key charge during the renewal sweep.
type BillingChargeRequest struct {
	BillingKey  string
	CustomerKey string
	OrderID     string
	OrderName   string
	Amount      int64
	Currency    string
}

// Provider abstracts the payment gateway calls the service depends on.
// TossClient is the production implementation; tests use fakes.
type Provider interface {
	ConfirmPayment(ctx context.Context, paymentKey, orderID string, amount int64) (*Payment, error)
	IssueBillingKey(ctx context.Context, authKey, customerKey string) (string, error)
	ChargeBillingKey(ctx context.Context, req BillingChargeRequest) (*Payment, error)
	DeleteBillingKey(ctx context.Context, billingKey string) error
}

// ConfirmParams are the query parameters recovered from the confirmation
// redirect. The provider stores none of this context beyond what the
// checkout session embedded in the callback URLs. AuthKey and CustomerKey
// are only present for subscription checkouts, where the widget's billing
// auth hands them back on the success redirect.
type ConfirmParams struct {
	PaymentKey  string
	OrderID     string
	Amount      int64
	UserID      uint
	Plan        string
	ContentID   uint
	AuthKey     string
	CustomerKey string
}

// WebhookInput is the normalized inbound webhook delivery. SignatureValid
// carries the transport-level verification result; IngestWebhook refuses to
// touch any state while it is false.
type WebhookInput struct {
	Provider       string
	EventID        string
	EventType      string
	PaymentKey     string
	OrderID        string
	Status         string
	TotalAmount    int64
	Method         string
	CancelReason   string
	PayloadJSON    string
	SignatureValid bool
}
