package controllers

import (
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/payments"
	"github.com/vibestack/vibestack/internal/pkg/statistics"
	"github.com/vibestack/vibestack/internal/pkg/utils"
)

// HandleStart renders the landing page with the latest published content.
func HandleStart(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetContentRepository()

	latest, err := repo.GetPublished(0, 12)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to fetch content")
	}

	stats := statistics.GetStatisticsData()

	return renderPage(c, "index", "", fiber.Map{
		"Contents":     latest,
		"TotalContent": stats.TotalContent,
		"TodayContent": stats.TodayContent,
		"TotalUsers":   stats.TotalUsers,
	})
}

// HandlePricing renders the plan comparison page.
func HandlePricing(c *fiber.Ctx) error {
	return renderPage(c, "pricing", "Pricing", fiber.Map{
		"Plans": []fiber.Map{
			{"Name": models.PlanPro, "Label": "Pro"},
			{"Name": models.PlanTeam, "Label": "Team"},
		},
		"Currencies": payments.SupportedCurrencies(),
	})
}

// HandlePageDisplay renders an active CMS page by slug.
func HandlePageDisplay(c *fiber.Ctx) error {
	slug := c.Params("slug")

	page, err := repository.GetGlobalFactory().GetPageRepository().GetBySlug(slug)
	if err != nil || !page.IsActive {
		return c.Status(fiber.StatusNotFound).SendString("Page not found")
	}

	return renderPage(c, "page", page.Title, fiber.Map{
		"Page":     page,
		"PageHTML": template.HTML(utils.ProcessHTMLContent(page.Content)),
	})
}
