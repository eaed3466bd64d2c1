package router

import (
	"github.com/vibestack/vibestack/app/controllers"
	"github.com/vibestack/vibestack/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Content catalog
	app.Get("/content", loggedInMiddleware, controllers.HandleContentIndex)
	app.Get("/content/search", loggedInMiddleware, controllers.HandleContentSearch)
	app.Get("/content/:slug", loggedInMiddleware, controllers.HandleContentView)

	// Static pages
	app.Get("/pricing", loggedInMiddleware, controllers.HandlePricing)
	app.Get("/page/:slug", loggedInMiddleware, controllers.HandlePageDisplay)

	// Payment provider redirect landings
	app.Get("/checkout/confirm", loggedInMiddleware, controllers.HandleCheckoutConfirm)
	app.Get("/checkout/success", loggedInMiddleware, controllers.HandleCheckoutSuccess)
	app.Get("/checkout/fail", loggedInMiddleware, controllers.HandleCheckoutFail)
	app.Get("/checkout/paypal/return", loggedInMiddleware, controllers.HandlePayPalReturn)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Social OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/payments", controllers.HandlePaymentWebhook)
}
