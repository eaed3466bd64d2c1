package models

import "time"

// Payment provider constants used across billing-related models.
const (
	PaymentProviderToss   = "toss"
	PaymentProviderPayPal = "paypal"
)

const (
	PlanPro    = "pro"
	PlanTeam   = "team"
	PlanSingle = "single"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription mirrors a recurring billing relationship with a payment
// provider. At most one non-canceled row exists per user.
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex:ux_subscriptions_user" json:"user_id"`
	Plan               string     `gorm:"type:varchar(20);not null;index" json:"plan"`
	Status             string     `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	Provider           string     `gorm:"type:varchar(20);not null" json:"provider"`
	Currency           string     `gorm:"type:varchar(8);not null;default:'KRW'" json:"currency"`
	BillingKey         string     `gorm:"type:varchar(191);default:''" json:"-"`
	CustomerKey        string     `gorm:"type:varchar(191);default:'';index" json:"-"`
	PaymentKey         string     `gorm:"type:varchar(191);default:'';index" json:"-"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CancelReason       string     `gorm:"type:varchar(255);default:''" json:"cancel_reason,omitempty"`
	CanceledAt         *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	RenewalFailures    int        `gorm:"not null;default:0" json:"renewal_failures"`
	RawPayloadJSON     string     `gorm:"type:longtext" json:"-"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsEntitling reports whether the subscription still grants premium access.
// past_due keeps entitlement as a grace period until dunning cancels it.
func (s *Subscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// PeriodLapsed reports whether the current billing period has ended.
func (s *Subscription) PeriodLapsed(now time.Time) bool {
	return s.CurrentPeriodEnd != nil && now.After(*s.CurrentPeriodEnd)
}
