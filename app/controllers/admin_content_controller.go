package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sujit-baniya/flash"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/search"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

// AdminContentController handles admin content CRUD using repository pattern
type AdminContentController struct {
	contentRepo repository.ContentRepository
}

// NewAdminContentController creates a new admin content controller with repository
func NewAdminContentController(contentRepo repository.ContentRepository) *AdminContentController {
	return &AdminContentController{
		contentRepo: contentRepo,
	}
}

func (acc *AdminContentController) handleError(c *fiber.Ctx, message string, err error) error {
	fm := fiber.Map{
		"type":    "error",
		"message": message + ": " + err.Error(),
	}
	return flash.WithError(c, fm).Redirect("/admin/content")
}

// HandleAdminContent renders the content management page.
func (acc *AdminContentController) HandleAdminContent(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	contents, err := acc.contentRepo.GetAll(offset, adminUsersPerPage)
	if err != nil {
		return acc.handleError(c, "Failed to load content", err)
	}
	total, _ := acc.contentRepo.Count()

	return renderPage(c, "admin/content", "Content Management", fiber.Map{
		"Contents": contents,
		"Page":     page,
		"PrevPage": page - 1,
		"NextPage": page + 1,
		"Total":    total,
		"HasNext":  len(contents) == adminUsersPerPage,
	})
}

// HandleAdminContentCreate renders the content creation form.
func (acc *AdminContentController) HandleAdminContentCreate(c *fiber.Ctx) error {
	return renderPage(c, "admin/content_edit", "New Content", fiber.Map{
		"Content": &models.Content{Type: models.ContentTypeDocument},
		"IsNew":   true,
	})
}

// HandleAdminContentStore handles content creation.
func (acc *AdminContentController) HandleAdminContentStore(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	content := &models.Content{
		UUID:     uuid.NewString(),
		AuthorID: userCtx.UserID,
	}
	if err := acc.fillFromForm(c, content); err != nil {
		fm := fiber.Map{"type": "error", "message": err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/content/create")
	}

	slugExists, err := acc.contentRepo.SlugExists(content.Slug)
	if err != nil {
		return acc.handleError(c, "Failed to check slug", err)
	}
	if slugExists {
		content.Slug = fmt.Sprintf("%s-%d", content.Slug, time.Now().Unix())
	}

	if err := acc.contentRepo.Create(content); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to create content: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/content/create")
	}

	_ = search.IndexContent(c.Context(), content)

	fm := fiber.Map{"type": "success", "message": "Content created successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/content")
}

// HandleAdminContentEdit renders the content edit form.
func (acc *AdminContentController) HandleAdminContentEdit(c *fiber.Ctx) error {
	content, redirectErr := acc.contentFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	return renderPage(c, "admin/content_edit", "Edit Content", fiber.Map{
		"Content": content,
		"IsNew":   false,
	})
}

// HandleAdminContentUpdate handles content update.
func (acc *AdminContentController) HandleAdminContentUpdate(c *fiber.Ctx) error {
	content, redirectErr := acc.contentFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}
	idParam := c.Params("id")

	oldSlug := content.Slug
	if err := acc.fillFromForm(c, content); err != nil {
		fm := fiber.Map{"type": "error", "message": err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/content/edit/" + idParam)
	}

	if content.Slug != oldSlug {
		slugExists, err := acc.contentRepo.SlugExistsExceptID(content.Slug, content.ID)
		if err != nil {
			return acc.handleError(c, "Failed to check slug", err)
		}
		if slugExists {
			content.Slug = fmt.Sprintf("%s-%d", content.Slug, time.Now().Unix())
		}
	}

	if err := acc.contentRepo.Update(content); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to update content: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/content/edit/" + idParam)
	}

	_ = search.IndexContent(c.Context(), content)

	fm := fiber.Map{"type": "success", "message": "Content updated successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/content")
}

// HandleAdminContentDelete handles content deletion.
func (acc *AdminContentController) HandleAdminContentDelete(c *fiber.Ctx) error {
	content, redirectErr := acc.contentFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	if err := acc.contentRepo.Delete(content.ID); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to delete content: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/content")
	}

	_ = search.RemoveContent(c.Context(), content.ID)

	fm := fiber.Map{"type": "success", "message": "Content deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/content")
}

// fillFromForm applies the edit form to the content row and validates it.
func (acc *AdminContentController) fillFromForm(c *fiber.Ctx, content *models.Content) error {
	content.Title = c.FormValue("title")
	content.Slug = c.FormValue("slug")
	content.Body = c.FormValue("body")
	content.Excerpt = c.FormValue("excerpt")
	content.Premium = c.FormValue("premium") == "1"

	contentType := c.FormValue("type")
	switch contentType {
	case models.ContentTypeDocument, models.ContentTypeTutorial, models.ContentTypeSnippet:
		content.Type = contentType
	default:
		return fmt.Errorf("unknown content type %q", contentType)
	}

	if price, err := strconv.ParseInt(c.FormValue("price"), 10, 64); err == nil && price >= 0 {
		content.Price = price
	}

	wasPublished := content.Published
	content.Published = c.FormValue("published") == "1"
	if content.Published && !wasPublished {
		now := time.Now()
		content.PublishedAt = &now
	}

	if content.Title == "" || content.Slug == "" {
		return fmt.Errorf("title and slug are required")
	}
	return content.Validate()
}

func (acc *AdminContentController) contentFromParam(c *fiber.Ctx) (*models.Content, error) {
	idParam := c.Params("id")
	if idParam == "" {
		return nil, c.Redirect("/admin/content")
	}

	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return nil, c.Redirect("/admin/content")
	}

	content, err := acc.contentRepo.GetByID(uint(id))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Content not found"}
		return nil, flash.WithError(c, fm).Redirect("/admin/content")
	}
	return content, nil
}

var adminContentController *AdminContentController

// InitializeAdminContentController initializes the global admin content controller
func InitializeAdminContentController() {
	contentRepo := repository.GetGlobalFactory().GetContentRepository()
	adminContentController = NewAdminContentController(contentRepo)
}

// GetAdminContentController returns the global admin content controller instance
func GetAdminContentController() *AdminContentController {
	if adminContentController == nil {
		InitializeAdminContentController()
	}
	return adminContentController
}
