package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurchaseCanTransitionTo(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{PurchaseStatusPending, PurchaseStatusCompleted, true},
		{PurchaseStatusPending, PurchaseStatusAborted, true},
		{PurchaseStatusPending, PurchaseStatusExpired, true},
		{PurchaseStatusPending, PurchaseStatusFailed, true},
		{PurchaseStatusPending, PurchaseStatusRefunded, false},
		{PurchaseStatusCompleted, PurchaseStatusRefunded, true},
		{PurchaseStatusCompleted, PurchaseStatusPartiallyRefunded, true},
		{PurchaseStatusCompleted, PurchaseStatusPending, false},
		{PurchaseStatusCompleted, PurchaseStatusAborted, false},
		{PurchaseStatusRefunded, PurchaseStatusCompleted, false},
		{PurchaseStatusRefunded, PurchaseStatusPending, false},
		{PurchaseStatusAborted, PurchaseStatusCompleted, false},
		// replaying the same status is a no-op, not a violation
		{PurchaseStatusCompleted, PurchaseStatusCompleted, true},
		{PurchaseStatusRefunded, PurchaseStatusRefunded, true},
	}

	for _, tt := range tests {
		p := &Purchase{Status: tt.from}
		assert.Equal(t, tt.want, p.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
