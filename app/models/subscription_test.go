package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsEntitling(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SubscriptionStatusActive, true},
		{SubscriptionStatusPastDue, true},
		{SubscriptionStatusCanceled, false},
		{"", false},
	}

	for _, tt := range tests {
		s := &Subscription{Status: tt.status}
		assert.Equal(t, tt.want, s.IsEntitling(), "status %q", tt.status)
	}
}

func TestSubscriptionPeriodLapsed(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, (&Subscription{}).PeriodLapsed(now), "no period set")
	assert.True(t, (&Subscription{CurrentPeriodEnd: &past}).PeriodLapsed(now))
	assert.False(t, (&Subscription{CurrentPeriodEnd: &future}).PeriodLapsed(now))
}
