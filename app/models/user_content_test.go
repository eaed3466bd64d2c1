package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserContentIsValid(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	grant := &UserContent{UserID: 1, ContentID: 2, Source: AccessSourcePurchased}
	assert.True(t, grant.IsValid(now))

	grant.ExpiresAt = &future
	assert.True(t, grant.IsValid(now))

	grant.ExpiresAt = &past
	assert.False(t, grant.IsValid(now))

	grant.ExpiresAt = nil
	grant.RevokedAt = &past
	assert.False(t, grant.IsValid(now))
}
