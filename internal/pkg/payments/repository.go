package payments

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vibestack/vibestack/app/models"
)

// Repository provides DB operations used by the payment service.
type Repository interface {
	GetUser(id uint) (*models.User, error)
	GetContent(id uint) (*models.Content, error)

	GetPurchaseByOrderID(orderID string) (*models.Purchase, error)
	GetPurchaseByPaymentKey(paymentKey string) (*models.Purchase, error)
	CreatePurchase(p *models.Purchase) error
	SavePurchase(p *models.Purchase) error
	UpdatePurchaseStatus(id uint, status string) error

	UpsertAccessGrant(grant *models.UserContent) error
	GetAccessGrant(userID, contentID uint) (*models.UserContent, error)
	RevokeAccessGrant(userID, contentID uint) error
	AccrueCredit(userID uint, amount int64) error

	GetSubscriptionByUser(userID uint) (*models.Subscription, error)
	GetSubscriptionByPaymentKey(paymentKey string) (*models.Subscription, error)
	UpsertSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	ListRenewalCandidates(endOfDay time.Time) ([]models.Subscription, error)
	ListLapsedDeferredCancels(now time.Time) ([]models.Subscription, error)

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	// Transaction runs fn against a repository bound to a DB transaction.
	// Multi-row effects (purchase + grant + credit) go through this.
	Transaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUser(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetContent(id uint) (*models.Content, error) {
	var c models.Content
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormRepository) GetPurchaseByOrderID(orderID string) (*models.Purchase, error) {
	var p models.Purchase
	if err := r.db.Where("order_id = ?", orderID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) GetPurchaseByPaymentKey(paymentKey string) (*models.Purchase, error) {
	var p models.Purchase
	if err := r.db.Where("payment_key = ?", paymentKey).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) CreatePurchase(p *models.Purchase) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) SavePurchase(p *models.Purchase) error {
	return r.db.Save(p).Error
}

func (r *gormRepository) UpdatePurchaseStatus(id uint, status string) error {
	return r.db.Model(&models.Purchase{}).Where("id = ?", id).Update("status", status).Error
}

func (r *gormRepository) UpsertAccessGrant(grant *models.UserContent) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "content_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"source",
			"expires_at",
			"revoked_at",
			"updated_at",
		}),
	}).Create(grant).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ? AND content_id = ?", grant.UserID, grant.ContentID).
		First(grant).Error
}

func (r *gormRepository) GetAccessGrant(userID, contentID uint) (*models.UserContent, error) {
	var grant models.UserContent
	err := r.db.Where("user_id = ? AND content_id = ?", userID, contentID).First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *gormRepository) RevokeAccessGrant(userID, contentID uint) error {
	now := time.Now()
	return r.db.Model(&models.UserContent{}).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Update("revoked_at", &now).Error
}

func (r *gormRepository) AccrueCredit(userID uint, amount int64) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credit_balance", gorm.Expr("credit_balance + ?", amount)).Error
}

func (r *gormRepository) GetSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByPaymentKey(paymentKey string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("payment_key = ?", paymentKey).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan",
			"status",
			"provider",
			"currency",
			"billing_key",
			"customer_key",
			"payment_key",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"cancel_reason",
			"canceled_at",
			"renewal_failures",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) ListRenewalCandidates(endOfDay time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status IN ?", []string{models.SubscriptionStatusActive, models.SubscriptionStatusPastDue}).
		Where("cancel_at_period_end = ?", false).
		Where("billing_key <> ''").
		Where("current_period_end IS NOT NULL AND current_period_end <= ?", endOfDay).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) ListLapsedDeferredCancels(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.
		Where("status = ?", models.SubscriptionStatusActive).
		Where("cancel_at_period_end = ?", true).
		Where("current_period_end IS NOT NULL AND current_period_end < ?", now).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

// IsNotFound reports whether err is the record-not-found error of the store.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
