package router

import (
	"github.com/vibestack/vibestack/app/controllers"
	"github.com/vibestack/vibestack/internal/pkg/middleware"
	"github.com/vibestack/vibestack/internal/pkg/oauth"
	"github.com/vibestack/vibestack/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize admin controller singletons
	controllers.InitializeAdminController()
	controllers.InitializeAdminContentController()
	controllers.InitializeAdminPageController()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func loggedInMiddleware(c *fiber.Ctx) error {
	// UserContextMiddleware already set all user context; user information is
	// available via usercontext.GetUserContext(c).
	return c.Next()
}
