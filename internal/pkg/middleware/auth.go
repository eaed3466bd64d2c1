package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/access"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

// loadUser fetches the current user row; swapped out in tests.
var loadUser = func(id uint) (*models.User, error) {
	return repository.GetGlobalFactory().GetUserRepository().GetByID(id)
}

// capability resolves the request's capability from fresh user state, so a
// ban taking effect mid-session revokes access immediately instead of
// waiting for the next login.
func capability(c *fiber.Ctx, needAdmin bool) access.Capability {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return access.Unauthenticated
	}
	user, err := loadUser(userCtx.UserID)
	if err != nil {
		return access.Unauthenticated
	}
	return access.Check(user, needAdmin)
}

// RequireAuth ensures a logged-in, non-banned web session; redirects to
// /login if missing and to the start page if access is revoked.
func RequireAuth(c *fiber.Ctx) error {
	switch capability(c, false) {
	case access.Authorized:
		return c.Next()
	case access.Forbidden:
		return c.Redirect("/", fiber.StatusSeeOther)
	default:
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
}

// RequireAdmin ensures a logged-in, non-banned admin; redirects otherwise.
func RequireAdmin(c *fiber.Ctx) error {
	switch capability(c, true) {
	case access.Authorized:
		return c.Next()
	case access.Forbidden:
		return c.Redirect("/", fiber.StatusSeeOther)
	default:
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
}

// RequireAPISessionAuth ensures a logged-in session for API routes and
// returns JSON errors instead of redirects.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	switch capability(c, false) {
	case access.Authorized:
		return c.Next()
	case access.Forbidden:
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "account access revoked",
		})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
}
