package controllers

import (
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/access"
	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/metrics/counter"
	"github.com/vibestack/vibestack/internal/pkg/search"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
	"github.com/vibestack/vibestack/internal/pkg/utils"
)

const contentsPerPage = 24

// HandleContentIndex lists published content, optionally filtered by type.
func HandleContentIndex(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetContentRepository()

	contentType := normalizeContentType(c.Query("type"))
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * contentsPerPage

	var (
		contents []models.Content
		err      error
	)
	if contentType != "" {
		contents, err = repo.GetByType(contentType, offset, contentsPerPage)
	} else {
		contents, err = repo.GetPublished(offset, contentsPerPage)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to fetch content")
	}

	return renderPage(c, "content/index", "Library", fiber.Map{
		"Contents":    contents,
		"ContentType": contentType,
		"Page":        page,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
		"HasNext":     len(contents) == contentsPerPage,
	})
}

// HandleContentView renders one content item. Premium content behind the
// access check renders the paywall instead of the body.
func HandleContentView(c *fiber.Ctx) error {
	slug := c.Params("slug")

	content, err := repository.GetGlobalFactory().GetContentRepository().GetBySlug(slug)
	if err != nil || !content.Published {
		return c.Status(fiber.StatusNotFound).SendString("Content not found")
	}

	userCtx := usercontext.GetUserContext(c)
	decision, err := access.CanView(access.NewStore(database.GetDB()), userCtx.UserID, content)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Access check failed")
	}

	if !decision.Allowed {
		return renderPage(c, "content/paywall", content.Title, fiber.Map{
			"Content": content,
		})
	}

	// View counting is buffered in Redis and flushed in batches.
	_ = counter.AddContentView(content.ID)

	return renderPage(c, "content/view", content.Title, fiber.Map{
		"Content":      content,
		"BodyHTML":     template.HTML(utils.ProcessHTMLContent(content.Body)),
		"AccessSource": decision.Source,
	})
}

// HandleContentSearch answers the search box: Redis index first, database
// LIKE fallback when the index is cold.
func HandleContentSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return renderPage(c, "content/search", "Search", fiber.Map{
			"Query":    "",
			"Contents": []models.Content{},
		})
	}

	contents, err := search.QueryContents(c.Context(), query, contentsPerPage)
	if err != nil || len(contents) == 0 {
		contents, err = repository.GetGlobalFactory().GetContentRepository().Search(query)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Search failed")
		}
	}

	return renderPage(c, "content/search", "Search", fiber.Map{
		"Query":    query,
		"Contents": contents,
	})
}

func normalizeContentType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case models.ContentTypeDocument:
		return models.ContentTypeDocument
	case models.ContentTypeTutorial:
		return models.ContentTypeTutorial
	case models.ContentTypeSnippet:
		return models.ContentTypeSnippet
	default:
		return ""
	}
}
