package repository

import (
	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// List retrieves stored webhook events, newest first
func (r *webhookEventRepository) List(offset, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// Count returns the total number of stored webhook events
func (r *webhookEventRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.WebhookEvent{}).Count(&count).Error
	return count, err
}
