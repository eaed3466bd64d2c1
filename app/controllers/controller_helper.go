package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

const (
	AUTH_KEY       string = "authenticated"
	USER_ID        string = "user_id"
	USER_NAME      string = "username"
	USER_IS_ADMIN  string = "isAdmin"
	FROM_PROTECTED string = "from_protected"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractUsername gets the username from Locals (set by middleware)
func ExtractUsername(c *fiber.Ctx) string {
	// Get from Locals (set by authentication middleware)
	if userNameValue := c.Locals(USER_NAME); userNameValue != nil {
		if userName, ok := userNameValue.(string); ok {
			return userName
		}
	}

	return ""
}

func csrfToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("csrf").(string); ok {
		return token
	}
	return ""
}

// renderPage merges the per-request layout bindings (user context, flash,
// csrf token) into the template data and renders with the shared layout.
func renderPage(c *fiber.Ctx, template, title string, data fiber.Map) error {
	userCtx := usercontext.GetUserContext(c)

	bindings := fiber.Map{
		"Title":      title,
		"IsLoggedIn": userCtx.IsLoggedIn,
		"IsAdmin":    userCtx.IsAdmin,
		"Username":   userCtx.Username,
		"Plan":       userCtx.Plan,
		"Flash":      flash.Get(c),
		"CSRFToken":  csrfToken(c),
	}
	for k, v := range data {
		bindings[k] = v
	}

	return c.Render(template, bindings, "layouts/main")
}
