package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ContentTypeDocument = "document"
	ContentTypeTutorial = "tutorial"
	ContentTypeSnippet  = "snippet"
)

// Content is a document, tutorial or snippet. The payment core only cares
// about ID and the premium flag; everything else feeds the content pages.
type Content struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        string         `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Slug        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	Type        string         `gorm:"type:varchar(20);not null;default:'document';index" json:"type" validate:"oneof=document tutorial snippet"`
	Body        string         `gorm:"type:longtext" json:"body"`
	Excerpt     string         `gorm:"type:varchar(500);default:''" json:"excerpt"`
	Premium     bool           `gorm:"default:false;index" json:"premium"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	Price       int64          `gorm:"not null;default:0" json:"price"`
	AuthorID    uint           `gorm:"index" json:"author_id"`
	Author      User           `gorm:"foreignKey:AuthorID" json:"-"`
	ViewCount   uint64         `gorm:"default:0" json:"view_count"`
	PublishedAt *time.Time     `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Content) Validate() error {
	v := validator.New()
	return v.Struct(c)
}

func FindContentBySlug(db *gorm.DB, slug string) (*Content, error) {
	var content Content
	err := db.Where("slug = ? AND published = ?", slug, true).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func FindContentByID(db *gorm.DB, id uint) (*Content, error) {
	var content Content
	err := db.First(&content, id).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func GetPublishedContents(db *gorm.DB, contentType string, limit int) ([]Content, error) {
	var contents []Content
	q := db.Where("published = ?", true)
	if contentType != "" {
		q = q.Where("type = ?", contentType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Order("published_at DESC").Find(&contents).Error
	return contents, err
}
