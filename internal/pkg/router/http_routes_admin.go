package router

import (
	"github.com/vibestack/vibestack/app/controllers"
	"github.com/vibestack/vibestack/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleDashboard(c)
	})

	// User management
	adminGroup.Get("/users", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUsers(c)
	})
	adminGroup.Get("/users/edit/:id", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUserEdit(c)
	})
	adminGroup.Post("/users/update/:id", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUserUpdate(c)
	})
	adminGroup.Post("/users/ban/:id", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUserBan(c)
	})
	adminGroup.Post("/users/unban/:id", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUserUnban(c)
	})
	adminGroup.Post("/users/delete/:id", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleUserDelete(c)
	})
	adminGroup.Get("/search", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleSearch(c)
	})

	// Billing oversight
	adminGroup.Get("/purchases", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandlePurchases(c)
	})
	adminGroup.Get("/subscriptions", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleSubscriptions(c)
	})
	adminGroup.Get("/webhook-events", func(c *fiber.Ctx) error {
		return controllers.GetAdminController().HandleWebhookEvents(c)
	})
}
