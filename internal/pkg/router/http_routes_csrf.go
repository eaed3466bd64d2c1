package router

import (
	"strings"
	"time"

	"github.com/vibestack/vibestack/app/controllers"
	"github.com/vibestack/vibestack/internal/pkg/env"
	"github.com/vibestack/vibestack/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get("/", loggedInMiddleware, controllers.HandleStart)
	group.Get("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Get("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)

	// Checkout entry page; the session itself is created via the JSON API
	group.Get("/checkout", middleware.RequireAuth, controllers.HandleCheckoutPage)

	// User area
	group.Get("/user", middleware.RequireAuth, controllers.HandleUserDashboard)
	group.Get("/user/library", middleware.RequireAuth, controllers.HandleUserLibrary)
	group.Get("/user/subscription", middleware.RequireAuth, controllers.HandleUserSubscription)
	group.Post("/user/subscription/cancel", middleware.RequireAuth, controllers.HandleSubscriptionCancel)
	group.Post("/user/subscription/resync", middleware.RequireAuth, controllers.HandleSubscriptionResync)

	// Admin CMS pages
	group.Get("/admin/pages", middleware.RequireAdmin, adminPages)
	group.Get("/admin/pages/create", middleware.RequireAdmin, adminPageCreate)
	group.Post("/admin/pages/store", middleware.RequireAdmin, adminPageStore)
	group.Get("/admin/pages/edit/:id", middleware.RequireAdmin, adminPageEdit)
	group.Post("/admin/pages/update/:id", middleware.RequireAdmin, adminPageUpdate)
	group.Post("/admin/pages/delete/:id", middleware.RequireAdmin, adminPageDelete)

	// Admin content management
	group.Get("/admin/content", middleware.RequireAdmin, adminContent)
	group.Get("/admin/content/create", middleware.RequireAdmin, adminContentCreate)
	group.Post("/admin/content/store", middleware.RequireAdmin, adminContentStore)
	group.Get("/admin/content/edit/:id", middleware.RequireAdmin, adminContentEdit)
	group.Post("/admin/content/update/:id", middleware.RequireAdmin, adminContentUpdate)
	group.Post("/admin/content/delete/:id", middleware.RequireAdmin, adminContentDelete)
}

// Thin adapters so route registration stays declarative while the admin
// controllers remain instance-based.
func adminPages(c *fiber.Ctx) error       { return controllers.GetAdminPageController().HandleAdminPages(c) }
func adminPageCreate(c *fiber.Ctx) error  { return controllers.GetAdminPageController().HandleAdminPageCreate(c) }
func adminPageStore(c *fiber.Ctx) error   { return controllers.GetAdminPageController().HandleAdminPageStore(c) }
func adminPageEdit(c *fiber.Ctx) error    { return controllers.GetAdminPageController().HandleAdminPageEdit(c) }
func adminPageUpdate(c *fiber.Ctx) error  { return controllers.GetAdminPageController().HandleAdminPageUpdate(c) }
func adminPageDelete(c *fiber.Ctx) error  { return controllers.GetAdminPageController().HandleAdminPageDelete(c) }
func adminContent(c *fiber.Ctx) error     { return controllers.GetAdminContentController().HandleAdminContent(c) }
func adminContentCreate(c *fiber.Ctx) error { return controllers.GetAdminContentController().HandleAdminContentCreate(c) }
func adminContentStore(c *fiber.Ctx) error  { return controllers.GetAdminContentController().HandleAdminContentStore(c) }
func adminContentEdit(c *fiber.Ctx) error   { return controllers.GetAdminContentController().HandleAdminContentEdit(c) }
func adminContentUpdate(c *fiber.Ctx) error { return controllers.GetAdminContentController().HandleAdminContentUpdate(c) }
func adminContentDelete(c *fiber.Ctx) error { return controllers.GetAdminContentController().HandleAdminContentDelete(c) }
