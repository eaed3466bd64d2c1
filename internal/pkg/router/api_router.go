package router

import (
	"github.com/vibestack/vibestack/app/controllers"
	"github.com/vibestack/vibestack/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Checkout session creation for the payment widget
	v1.Post("/checkout/session", middleware.RequireAPISessionAuth, controllers.HandleCheckoutSession)

	// Renewal sweep, triggered by an external scheduler with a bearer token
	v1.Post("/renewals/run", middleware.RequireSweepToken(), controllers.HandleRenewalSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
