// Package search maintains a lightweight Redis-backed index over published
// content for the site search box. The database remains the source of truth;
// the index only narrows candidate ids.
package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/internal/pkg/cache"
	"github.com/vibestack/vibestack/internal/pkg/database"
)

const indexKey = "content:search:index"

// IndexContent adds or refreshes one content item in the index. Unpublished
// content is removed instead.
func IndexContent(ctx context.Context, content *models.Content) error {
	if content == nil || content.ID == 0 {
		return nil
	}
	field := strconv.FormatUint(uint64(content.ID), 10)
	if !content.Published {
		return cache.GetClient().HDel(ctx, indexKey, field).Err()
	}
	doc := strings.ToLower(strings.Join([]string{content.Title, content.Excerpt, content.Slug}, " "))
	return cache.GetClient().HSet(ctx, indexKey, field, doc).Err()
}

// RemoveContent drops one content item from the index.
func RemoveContent(ctx context.Context, contentID uint) error {
	field := strconv.FormatUint(uint64(contentID), 10)
	return cache.GetClient().HDel(ctx, indexKey, field).Err()
}

// RebuildIndex re-indexes all published content. Called at startup and after
// bulk admin changes.
func RebuildIndex(ctx context.Context) error {
	db := database.GetDB()
	if db == nil {
		return nil
	}
	var contents []models.Content
	if err := db.Where("published = ?", true).Find(&contents).Error; err != nil {
		return err
	}
	if err := cache.GetClient().Del(ctx, indexKey).Err(); err != nil {
		return err
	}
	for i := range contents {
		if err := IndexContent(ctx, &contents[i]); err != nil {
			return err
		}
	}
	return nil
}

// QueryContents returns published content whose indexed text contains every
// term of the query, newest first, up to limit rows.
func QueryContents(ctx context.Context, query string, limit int) ([]models.Content, error) {
	terms := strings.Fields(strings.ToLower(strings.TrimSpace(query)))
	if len(terms) == 0 {
		return nil, nil
	}

	entries, err := cache.GetClient().HGetAll(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	var ids []uint
	for field, doc := range entries {
		if !containsAll(doc, terms) {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var contents []models.Content
	q := database.GetDB().Where("id IN ? AND published = ?", ids, true).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err = q.Find(&contents).Error
	return contents, err
}

func containsAll(doc string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(doc, t) {
			return false
		}
	}
	return true
}
