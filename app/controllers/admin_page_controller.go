package controllers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
)

// AdminPageController handles admin CMS page CRUD using repository pattern
type AdminPageController struct {
	pageRepo repository.PageRepository
}

// NewAdminPageController creates a new admin page controller with repository
func NewAdminPageController(pageRepo repository.PageRepository) *AdminPageController {
	return &AdminPageController{
		pageRepo: pageRepo,
	}
}

func (apc *AdminPageController) handleError(c *fiber.Ctx, message string, err error) error {
	fm := fiber.Map{
		"type":    "error",
		"message": message + ": " + err.Error(),
	}
	return flash.WithError(c, fm).Redirect("/admin/pages")
}

// HandleAdminPages renders the page management list.
func (apc *AdminPageController) HandleAdminPages(c *fiber.Ctx) error {
	pages, err := apc.pageRepo.GetAll()
	if err != nil {
		return apc.handleError(c, "Failed to load pages", err)
	}

	return renderPage(c, "admin/pages", "Page Management", fiber.Map{
		"Pages": pages,
	})
}

// HandleAdminPageCreate renders the page creation form.
func (apc *AdminPageController) HandleAdminPageCreate(c *fiber.Ctx) error {
	return renderPage(c, "admin/page_edit", "New Page", fiber.Map{
		"PageRecord": &models.Page{IsActive: true},
		"IsNew":      true,
	})
}

// HandleAdminPageStore handles page creation.
func (apc *AdminPageController) HandleAdminPageStore(c *fiber.Ctx) error {
	page := &models.Page{
		Title:    c.FormValue("title"),
		Slug:     c.FormValue("slug"),
		Content:  c.FormValue("content"),
		IsActive: c.FormValue("is_active") == "1",
	}

	if err := page.Validate(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Title, slug and content are required"}
		return flash.WithError(c, fm).Redirect("/admin/pages/create")
	}

	slugExists, err := apc.pageRepo.SlugExists(page.Slug)
	if err != nil {
		return apc.handleError(c, "Failed to check slug", err)
	}
	if slugExists {
		page.Slug = fmt.Sprintf("%s-%d", page.Slug, time.Now().Unix())
	}

	if err := apc.pageRepo.Create(page); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to create page: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/pages/create")
	}

	fm := fiber.Map{"type": "success", "message": "Page created successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/pages")
}

// HandleAdminPageEdit renders the page edit form.
func (apc *AdminPageController) HandleAdminPageEdit(c *fiber.Ctx) error {
	page, redirectErr := apc.pageFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	return renderPage(c, "admin/page_edit", "Edit Page", fiber.Map{
		"PageRecord": page,
		"IsNew":      false,
	})
}

// HandleAdminPageUpdate handles page update.
func (apc *AdminPageController) HandleAdminPageUpdate(c *fiber.Ctx) error {
	page, redirectErr := apc.pageFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}
	idParam := c.Params("id")

	newSlug := c.FormValue("slug")
	if newSlug != page.Slug {
		slugExists, err := apc.pageRepo.SlugExistsExceptID(newSlug, page.ID)
		if err != nil {
			return apc.handleError(c, "Failed to check slug", err)
		}
		if slugExists {
			newSlug = fmt.Sprintf("%s-%d", newSlug, time.Now().Unix())
		}
	}

	page.Title = c.FormValue("title")
	page.Slug = newSlug
	page.Content = c.FormValue("content")
	page.IsActive = c.FormValue("is_active") == "1"

	if err := page.Validate(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Title, slug and content are required"}
		return flash.WithError(c, fm).Redirect("/admin/pages/edit/" + idParam)
	}

	if err := apc.pageRepo.Update(page); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to update page: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/pages/edit/" + idParam)
	}

	fm := fiber.Map{"type": "success", "message": "Page updated successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/pages")
}

// HandleAdminPageDelete handles page deletion.
func (apc *AdminPageController) HandleAdminPageDelete(c *fiber.Ctx) error {
	page, redirectErr := apc.pageFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	if err := apc.pageRepo.Delete(page.ID); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to delete page: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/pages")
	}

	fm := fiber.Map{"type": "success", "message": "Page deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/pages")
}

func (apc *AdminPageController) pageFromParam(c *fiber.Ctx) (*models.Page, error) {
	idParam := c.Params("id")
	if idParam == "" {
		return nil, c.Redirect("/admin/pages")
	}

	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return nil, c.Redirect("/admin/pages")
	}

	page, err := apc.pageRepo.GetByID(uint(id))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Page not found"}
		return nil, flash.WithError(c, fm).Redirect("/admin/pages")
	}
	return page, nil
}

var adminPageController *AdminPageController

// InitializeAdminPageController initializes the global admin page controller
func InitializeAdminPageController() {
	pageRepo := repository.GetGlobalFactory().GetPageRepository()
	adminPageController = NewAdminPageController(pageRepo)
}

// GetAdminPageController returns the global admin page controller instance
func GetAdminPageController() *AdminPageController {
	if adminPageController == nil {
		InitializeAdminPageController()
	}
	return adminPageController
}
