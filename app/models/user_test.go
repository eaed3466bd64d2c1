package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("Jana Kim", "jana@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.Equal(t, "Jana Kim", user.Name)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.NotEqual(t, "s3cret-pass", user.Password)
	assert.True(t, user.CheckPassword("s3cret-pass"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestCreateUserInvalidEmail(t *testing.T) {
	_, err := CreateUser("Jana Kim", "not-an-email", "s3cret-pass")
	assert.Error(t, err)
}

func TestIsBanned(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	u := &User{}
	assert.False(t, u.IsBanned())

	u.Ban("spam", nil)
	assert.True(t, u.IsBanned())
	assert.NotNil(t, u.BannedAt)
	assert.Equal(t, "spam", u.BanReason)

	u.Ban("spam", &future)
	assert.True(t, u.IsBanned())

	u.Ban("spam", &past)
	assert.False(t, u.IsBanned(), "expired ban no longer applies")

	u.Unban()
	assert.False(t, u.Banned)
	assert.Nil(t, u.BannedAt)
	assert.Empty(t, u.BanReason)
	assert.Nil(t, u.BanExpiresAt)
}

func TestAccrueCredit(t *testing.T) {
	u := &User{CreditBalance: 100}

	u.AccrueCredit(15000)
	assert.Equal(t, int64(15100), u.CreditBalance)

	u.AccrueCredit(0)
	u.AccrueCredit(-500)
	assert.Equal(t, int64(15100), u.CreditBalance, "non-positive amounts are ignored")
}
