package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"
)

type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email         string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password      string         `gorm:"type:text" json:"-"`
	Provider      string         `gorm:"type:varchar(50);default:'';index:ux_users_provider_subject,unique,priority:1" json:"-"`
	ProviderID    string         `gorm:"type:varchar(191);default:'';index:ux_users_provider_subject,unique,priority:2" json:"-"`
	Role          string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Banned        bool           `gorm:"default:false;index" json:"banned"`
	BannedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"banned_at,omitempty"`
	BanReason     string         `gorm:"type:varchar(255);default:''" json:"ban_reason,omitempty"`
	BanExpiresAt  *time.Time     `gorm:"type:timestamp;default:null" json:"ban_expires_at,omitempty"`
	CreditBalance int64          `gorm:"not null;default:0" json:"credit_balance"`
	LastLoginAt   *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsBanned reports whether the ban is currently in effect. Temporary bans
// expire once BanExpiresAt has passed.
func (u *User) IsBanned() bool {
	if !u.Banned {
		return false
	}
	if u.BanExpiresAt != nil && time.Now().After(*u.BanExpiresAt) {
		return false
	}
	return true
}

// Ban marks the user as banned with a reason and an optional expiry.
func (u *User) Ban(reason string, expiresAt *time.Time) {
	now := time.Now()
	u.Banned = true
	u.BannedAt = &now
	u.BanReason = reason
	u.BanExpiresAt = expiresAt
}

// Unban clears all ban state.
func (u *User) Unban() {
	u.Banned = false
	u.BannedAt = nil
	u.BanReason = ""
	u.BanExpiresAt = nil
}

// AccrueCredit adds paid minor units to the user's redeemable credit balance.
func (u *User) AccrueCredit(amount int64) {
	if amount > 0 {
		u.CreditBalance += amount
	}
}
