package repository

import (
	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByProviderSubject(provider, providerID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// ContentRepository defines the interface for content-related database operations
type ContentRepository interface {
	Create(content *models.Content) error
	GetByID(id uint) (*models.Content, error)
	GetBySlug(slug string) (*models.Content, error)
	GetPublished(offset, limit int) ([]models.Content, error)
	GetByType(contentType string, offset, limit int) ([]models.Content, error)
	GetAll(offset, limit int) ([]models.Content, error)
	Update(content *models.Content) error
	Delete(id uint) error
	Count() (int64, error)
	CountPublished() (int64, error)
	Search(query string) ([]models.Content, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
}

// PageRepository defines the interface for page-related operations
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	GetAll() ([]models.Page, error)
	GetActive() ([]models.Page, error)
	Update(page *models.Page) error
	Delete(id uint) error
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
}

// PurchaseRepository defines the read surface for admin purchase listings
type PurchaseRepository interface {
	GetByID(id uint) (*models.Purchase, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Purchase, error)
	List(offset, limit int) ([]models.Purchase, error)
	Count() (int64, error)
	CompletedContentIDs(userID uint) ([]uint, error)
}

// SubscriptionRepository defines the read surface for admin subscription listings
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.Subscription, error)
	List(offset, limit int) ([]models.Subscription, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// WebhookEventRepository defines the read surface for the webhook event ledger
type WebhookEventRepository interface {
	List(offset, limit int) ([]models.WebhookEvent, error)
	Count() (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Content      ContentRepository
	Page         PageRepository
	Purchase     PurchaseRepository
	Subscription SubscriptionRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Content:      NewContentRepository(db),
		Page:         NewPageRepository(db),
		Purchase:     NewPurchaseRepository(db),
		Subscription: NewSubscriptionRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
