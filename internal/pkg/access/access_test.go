package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

type stubStore struct {
	sub   *models.Subscription
	grant *models.UserContent
}

func (s *stubStore) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	if s.sub == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sub, nil
}

func (s *stubStore) GetAccessGrant(userID, contentID uint) (*models.UserContent, error) {
	if s.grant == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.grant, nil
}

func TestCanViewFreeContent(t *testing.T) {
	content := &models.Content{ID: 1, Premium: false}

	// Free content never consults the store, even for anonymous users.
	decision, err := CanView(&stubStore{}, 0, content)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.AccessSourceFree, decision.Source)
}

func TestCanViewPremiumDeniedWithoutEntitlement(t *testing.T) {
	content := &models.Content{ID: 1, Premium: true}

	decision, err := CanView(&stubStore{}, 7, content)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanViewPremiumAnonymousDenied(t *testing.T) {
	content := &models.Content{ID: 1, Premium: true}

	decision, err := CanView(&stubStore{}, 0, content)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanViewPremiumViaSubscription(t *testing.T) {
	content := &models.Content{ID: 1, Premium: true}
	store := &stubStore{sub: &models.Subscription{UserID: 7, Status: models.SubscriptionStatusActive}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.AccessSourceSubscription, decision.Source)
}

func TestCanViewPastDueGrace(t *testing.T) {
	content := &models.Content{ID: 1, Premium: true}
	store := &stubStore{sub: &models.Subscription{UserID: 7, Status: models.SubscriptionStatusPastDue}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "past_due keeps access during dunning")
	assert.Equal(t, models.AccessSourceSubscription, decision.Source)
}

func TestCanViewCanceledSubscriptionDenied(t *testing.T) {
	content := &models.Content{ID: 1, Premium: true}
	store := &stubStore{sub: &models.Subscription{UserID: 7, Status: models.SubscriptionStatusCanceled}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanViewViaPurchasedGrant(t *testing.T) {
	content := &models.Content{ID: 3, Premium: true}
	store := &stubStore{grant: &models.UserContent{
		UserID: 7, ContentID: 3, Source: models.AccessSourcePurchased,
	}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, models.AccessSourcePurchased, decision.Source)
}

func TestCanViewRevokedGrantDenied(t *testing.T) {
	now := time.Now()
	content := &models.Content{ID: 3, Premium: true}
	store := &stubStore{grant: &models.UserContent{
		UserID: 7, ContentID: 3, Source: models.AccessSourcePurchased, RevokedAt: &now,
	}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.False(t, decision.Allowed, "refunded purchases lose access")
}

func TestCanViewExpiredGrantDenied(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	content := &models.Content{ID: 3, Premium: true}
	store := &stubStore{grant: &models.UserContent{
		UserID: 7, ContentID: 3, Source: models.AccessSourcePurchased, ExpiresAt: &past,
	}}

	decision, err := CanView(store, 7, content)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanViewNilContent(t *testing.T) {
	decision, err := CanView(&stubStore{}, 7, nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCheckCapability(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		user      *models.User
		needAdmin bool
		want      Capability
	}{
		{name: "anonymous", user: nil, want: Unauthenticated},
		{name: "zero id", user: &models.User{}, want: Unauthenticated},
		{name: "regular user", user: &models.User{ID: 1, Role: models.ROLE_USER}, want: Authorized},
		{name: "banned user", user: &models.User{ID: 1, Banned: true}, want: Forbidden},
		{name: "ban expired", user: &models.User{ID: 1, Banned: true, BanExpiresAt: &now}, want: Authorized},
		{name: "ban still active", user: &models.User{ID: 1, Banned: true, BanExpiresAt: &future}, want: Forbidden},
		{name: "user on admin route", user: &models.User{ID: 1, Role: models.ROLE_USER}, needAdmin: true, want: Forbidden},
		{name: "admin on admin route", user: &models.User{ID: 1, Role: models.ROLE_ADMIN}, needAdmin: true, want: Authorized},
		{name: "banned admin", user: &models.User{ID: 1, Role: models.ROLE_ADMIN, Banned: true}, needAdmin: true, want: Forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.user, tt.needAdmin))
		})
	}
}
