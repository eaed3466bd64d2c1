package models

import "time"

const (
	PurchaseStatusPending           = "pending"
	PurchaseStatusCompleted         = "completed"
	PurchaseStatusRefunded          = "refunded"
	PurchaseStatusPartiallyRefunded = "partially_refunded"
	PurchaseStatusAborted           = "aborted"
	PurchaseStatusExpired           = "expired"
	PurchaseStatusFailed            = "failed"
)

// Purchase is a one-time content unlock. Amount and currency are immutable
// once the purchase is completed; later webhook events only mutate status.
type Purchase struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ContentID  uint      `gorm:"not null;index" json:"content_id"`
	Amount     int64     `gorm:"not null" json:"amount"`
	Currency   string    `gorm:"type:varchar(8);not null" json:"currency"`
	Provider   string    `gorm:"type:varchar(20);not null" json:"provider"`
	OrderID    string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	PaymentKey string    `gorm:"type:varchar(191);not null;index" json:"-"`
	Status     string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CanTransitionTo enforces the monotonic purchase state machine:
// pending -> completed -> {refunded, partially_refunded}, or
// pending -> {aborted, expired, failed}. Nothing re-enters pending.
func (p *Purchase) CanTransitionTo(next string) bool {
	if next == p.Status {
		return true
	}
	switch p.Status {
	case PurchaseStatusPending:
		switch next {
		case PurchaseStatusCompleted, PurchaseStatusAborted, PurchaseStatusExpired, PurchaseStatusFailed:
			return true
		}
	case PurchaseStatusCompleted:
		switch next {
		case PurchaseStatusRefunded, PurchaseStatusPartiallyRefunded:
			return true
		}
	}
	return false
}
