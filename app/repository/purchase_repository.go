package repository

import (
	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// purchaseRepository implements the PurchaseRepository interface
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository instance
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// GetByID retrieves a purchase by its ID
func (r *purchaseRepository) GetByID(id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// GetByUserID retrieves a user's purchases, newest first
func (r *purchaseRepository) GetByUserID(userID uint, offset, limit int) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&purchases).Error
	return purchases, err
}

// List retrieves purchases with pagination
func (r *purchaseRepository) List(offset, limit int) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&purchases).Error
	return purchases, err
}

// Count returns the total number of purchases
func (r *purchaseRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Purchase{}).Count(&count).Error
	return count, err
}

// CompletedContentIDs returns the content ids a user has completed purchases for
func (r *purchaseRepository) CompletedContentIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Purchase{}).
		Where("user_id = ? AND status = ?", userID, models.PurchaseStatusCompleted).
		Pluck("content_id", &ids).Error
	return ids, err
}
