// Package access answers "may user U view content C" from the union of
// subscription state and purchase grants. Pure reads, no side effects.
package access

import (
	"time"

	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// Store is the narrow read surface the resolver needs.
type Store interface {
	GetSubscriptionByUser(userID uint) (*models.Subscription, error)
	GetAccessGrant(userID, contentID uint) (*models.UserContent, error)
}

// Decision is the result of an access check, tagged with its provenance.
type Decision struct {
	Allowed bool
	Source  string
}

// CanView resolves content access: non-premium content is always viewable;
// otherwise an entitling subscription (active or past_due grace) wins, then
// a non-revoked purchased grant.
func CanView(store Store, userID uint, content *models.Content) (Decision, error) {
	if content == nil {
		return Decision{}, nil
	}
	if !content.Premium {
		return Decision{Allowed: true, Source: models.AccessSourceFree}, nil
	}
	if userID == 0 {
		return Decision{}, nil
	}

	sub, err := store.GetSubscriptionByUser(userID)
	if err == nil && sub.IsEntitling() {
		return Decision{Allowed: true, Source: models.AccessSourceSubscription}, nil
	}
	if err != nil && !isNotFound(err) {
		return Decision{}, err
	}

	grant, err := store.GetAccessGrant(userID, content.ID)
	if err != nil {
		if isNotFound(err) {
			return Decision{}, nil
		}
		return Decision{}, err
	}
	if grant.Source == models.AccessSourcePurchased && grant.IsValid(time.Now()) {
		return Decision{Allowed: true, Source: models.AccessSourcePurchased}, nil
	}
	return Decision{}, nil
}

func isNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a resolver store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) GetAccessGrant(userID, contentID uint) (*models.UserContent, error) {
	var grant models.UserContent
	if err := s.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}
