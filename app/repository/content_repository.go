package repository

import (
	"gorm.io/gorm"

	"github.com/vibestack/vibestack/app/models"
)

// contentRepository implements the ContentRepository interface
type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository instance
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// Create creates a new content item in the database
func (r *contentRepository) Create(content *models.Content) error {
	return r.db.Create(content).Error
}

// GetByID retrieves a content item by its ID
func (r *contentRepository) GetByID(id uint) (*models.Content, error) {
	var content models.Content
	err := r.db.First(&content, id).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// GetBySlug retrieves a content item by its slug
func (r *contentRepository) GetBySlug(slug string) (*models.Content, error) {
	var content models.Content
	err := r.db.Where("slug = ?", slug).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// GetPublished retrieves published content with pagination
func (r *contentRepository) GetPublished(offset, limit int) ([]models.Content, error) {
	var contents []models.Content
	err := r.db.Where("published = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&contents).Error
	return contents, err
}

// GetByType retrieves published content of one type with pagination
func (r *contentRepository) GetByType(contentType string, offset, limit int) ([]models.Content, error) {
	var contents []models.Content
	err := r.db.Where("published = ? AND type = ?", true, contentType).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&contents).Error
	return contents, err
}

// GetAll retrieves all content items with pagination, drafts included
func (r *contentRepository) GetAll(offset, limit int) ([]models.Content, error) {
	var contents []models.Content
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&contents).Error
	return contents, err
}

// Update updates an existing content item in the database
func (r *contentRepository) Update(content *models.Content) error {
	return r.db.Save(content).Error
}

// Delete soft deletes a content item by its ID
func (r *contentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Content{}, id).Error
}

// Count returns the total number of content items
func (r *contentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Content{}).Count(&count).Error
	return count, err
}

// CountPublished returns the number of published content items
func (r *contentRepository) CountPublished() (int64, error) {
	var count int64
	err := r.db.Model(&models.Content{}).Where("published = ?", true).Count(&count).Error
	return count, err
}

// Search finds published content by title or excerpt fragment
func (r *contentRepository) Search(query string) ([]models.Content, error) {
	var contents []models.Content
	like := "%" + query + "%"
	err := r.db.Where("published = ? AND (title LIKE ? OR excerpt LIKE ?)", true, like, like).
		Order("created_at DESC").Limit(50).Find(&contents).Error
	return contents, err
}

// SlugExists checks if a slug already exists
func (r *contentRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Content{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID checks if a slug exists excluding a specific ID
func (r *contentRepository) SlugExistsExceptID(slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Content{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}
