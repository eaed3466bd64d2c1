package models

import "time"

const (
	AccessSourceFree         = "free"
	AccessSourcePurchased    = "purchased"
	AccessSourceSubscription = "subscription"
)

// UserContent is the materialized access grant permitting a user to view a
// content item. Upserts are keyed by the unique (user_id, content_id) pair so
// a repeated grant overwrites rather than duplicates.
type UserContent struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index:ux_user_contents_user_content,unique,priority:1" json:"user_id"`
	ContentID uint       `gorm:"not null;index:ux_user_contents_user_content,unique,priority:2" json:"content_id"`
	Source    string     `gorm:"type:varchar(20);not null;default:'free'" json:"source"`
	ExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	RevokedAt *time.Time `gorm:"type:timestamp;default:null" json:"revoked_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsValid reports whether the grant is usable right now.
func (uc *UserContent) IsValid(now time.Time) bool {
	if uc.RevokedAt != nil {
		return false
	}
	if uc.ExpiresAt != nil && now.After(*uc.ExpiresAt) {
		return false
	}
	return true
}
