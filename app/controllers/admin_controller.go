package controllers

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/session"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
)

const adminUsersPerPage = 20

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

// HandleDashboard renders the admin dashboard with the platform counters.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	totalContent, err := ac.repos.Content.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get content count", err)
	}

	publishedContent, err := ac.repos.Content.CountPublished()
	if err != nil {
		return ac.handleError(c, "Failed to get published content count", err)
	}

	totalPurchases, err := ac.repos.Purchase.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get purchase count", err)
	}

	activeSubs, _ := ac.repos.Subscription.CountByStatus(models.SubscriptionStatusActive)
	pastDueSubs, _ := ac.repos.Subscription.CountByStatus(models.SubscriptionStatusPastDue)
	webhookEvents, _ := ac.repos.WebhookEvent.Count()

	recentUsers, err := ac.repos.User.List(0, 5)
	if err != nil {
		return ac.handleError(c, "Failed to get recent users", err)
	}

	return renderPage(c, "admin/dashboard", "Admin Dashboard", fiber.Map{
		"TotalUsers":       totalUsers,
		"TotalContent":     totalContent,
		"PublishedContent": publishedContent,
		"TotalPurchases":   totalPurchases,
		"ActiveSubs":       activeSubs,
		"PastDueSubs":      pastDueSubs,
		"WebhookEvents":    webhookEvents,
		"RecentUsers":      recentUsers,
	})
}

// HandleUsers renders the user management page.
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	totalUsers, err := ac.repos.User.Count()
	if err != nil {
		return ac.handleError(c, "Failed to get user count", err)
	}

	users, err := ac.repos.User.List(offset, adminUsersPerPage)
	if err != nil {
		return ac.handleError(c, "Failed to get users", err)
	}

	totalPages := int(totalUsers) / adminUsersPerPage
	if int(totalUsers)%adminUsersPerPage > 0 {
		totalPages++
	}
	pages := make([]int, totalPages)
	for i := range pages {
		pages[i] = i + 1
	}

	return renderPage(c, "admin/users", "User Management", fiber.Map{
		"Users": users,
		"Page":  page,
		"Pages": pages,
	})
}

// HandleUserEdit renders the user edit page.
func (ac *AdminController) HandleUserEdit(c *fiber.Ctx) error {
	user, redirectErr := ac.userFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	plan := "free"
	if sub, err := ac.repos.Subscription.GetByUserID(user.ID); err == nil && sub.IsEntitling() {
		plan = sub.Plan
	}

	return renderPage(c, "admin/user_edit", "Edit User", fiber.Map{
		"User": user,
		"Plan": plan,
	})
}

// HandleUserUpdate handles user update from the edit form.
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	user, redirectErr := ac.userFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}
	idParam := c.Params("id")

	user.Name = c.FormValue("name")
	user.Email = c.FormValue("email")
	role := c.FormValue("role")
	if role == models.ROLE_USER || role == models.ROLE_ADMIN {
		user.Role = role
	}

	if err := user.Validate(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Validation failed: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/users/edit/" + idParam)
	}

	if err := ac.repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to update user: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/users/edit/" + idParam)
	}

	fm := fiber.Map{"type": "success", "message": "User updated successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

// HandleUserBan bans a user, optionally with an expiry in days.
func (ac *AdminController) HandleUserBan(c *fiber.Ctx) error {
	user, redirectErr := ac.userFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	if user.Role == models.ROLE_ADMIN {
		fm := fiber.Map{"type": "error", "message": "Admin accounts cannot be banned"}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	var expiresAt *time.Time
	if days, err := strconv.Atoi(c.FormValue("days")); err == nil && days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expiresAt = &t
	}

	user.Ban(strings.TrimSpace(c.FormValue("reason")), expiresAt)
	if err := ac.repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to ban user: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	fm := fiber.Map{"type": "success", "message": "User banned"}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

// HandleUserUnban lifts a ban.
func (ac *AdminController) HandleUserUnban(c *fiber.Ctx) error {
	user, redirectErr := ac.userFromParam(c)
	if redirectErr != nil {
		return redirectErr
	}

	user.Unban()
	if err := ac.repos.User.Update(user); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to unban user: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	fm := fiber.Map{"type": "success", "message": "Ban lifted"}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

// HandleUserDelete handles user deletion.
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.SendStatus(fiber.StatusMethodNotAllowed)
	}

	idParam := c.Params("id")
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return c.Redirect("/admin/users")
	}

	// Prevent self-deletion
	sess, _ := session.GetSessionStore().Get(c)
	if currentUserID, ok := sess.Get(usercontext.KeyUserID).(uint); ok && currentUserID == uint(id) {
		fm := fiber.Map{"type": "error", "message": "You cannot delete your own account"}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	if err := ac.repos.User.Delete(uint(id)); err != nil {
		fm := fiber.Map{"type": "error", "message": "Failed to delete user: " + err.Error()}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	fm := fiber.Map{"type": "success", "message": "User deleted successfully"}
	return flash.WithSuccess(c, fm).Redirect("/admin/users")
}

// HandleSearch searches users by name or email.
func (ac *AdminController) HandleSearch(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q", ""))
	if query == "" {
		fm := fiber.Map{"type": "error", "message": "Please enter a search term"}
		return flash.WithError(c, fm).Redirect("/admin/users")
	}

	users, err := ac.repos.User.Search(query)
	if err != nil {
		return ac.handleError(c, "Search failed", err)
	}

	fm := fiber.Map{
		"type":    "info",
		"message": "Search results for '" + query + "': " + strconv.Itoa(len(users)) + " users found",
	}
	flash.WithInfo(c, fm)

	return renderPage(c, "admin/users", "User Search", fiber.Map{
		"Users": users,
		"Page":  1,
		"Pages": []int{1},
		"Query": query,
	})
}

// HandlePurchases lists payment records for support lookups.
func (ac *AdminController) HandlePurchases(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	purchases, err := ac.repos.Purchase.List(offset, adminUsersPerPage)
	if err != nil {
		return ac.handleError(c, "Failed to get purchases", err)
	}
	total, _ := ac.repos.Purchase.Count()

	return renderPage(c, "admin/purchases", "Purchases", fiber.Map{
		"Purchases": purchases,
		"Page":      page,
		"PrevPage":  page - 1,
		"NextPage":  page + 1,
		"Total":     total,
		"HasNext":   len(purchases) == adminUsersPerPage,
	})
}

// HandleSubscriptions lists subscriptions with their dunning state.
func (ac *AdminController) HandleSubscriptions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	subs, err := ac.repos.Subscription.List(offset, adminUsersPerPage)
	if err != nil {
		return ac.handleError(c, "Failed to get subscriptions", err)
	}
	total, _ := ac.repos.Subscription.Count()

	return renderPage(c, "admin/subscriptions", "Subscriptions", fiber.Map{
		"Subscriptions": subs,
		"Page":          page,
		"Total":         total,
		"HasNext":       len(subs) == adminUsersPerPage,
	})
}

// HandleWebhookEvents lists the webhook ledger, newest first.
func (ac *AdminController) HandleWebhookEvents(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	events, err := ac.repos.WebhookEvent.List(offset, adminUsersPerPage)
	if err != nil {
		return ac.handleError(c, "Failed to get webhook events", err)
	}
	total, _ := ac.repos.WebhookEvent.Count()

	return renderPage(c, "admin/webhook_events", "Webhook Events", fiber.Map{
		"Events":  events,
		"Page":    page,
		"Total":   total,
		"HasNext": len(events) == adminUsersPerPage,
	})
}

// userFromParam loads the user addressed by the :id route parameter. The
// second return value is a ready-made redirect response when loading fails.
func (ac *AdminController) userFromParam(c *fiber.Ctx) (*models.User, error) {
	idParam := c.Params("id")
	if idParam == "" {
		return nil, c.Redirect("/admin/users")
	}

	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return nil, c.Redirect("/admin/users")
	}

	user, err := ac.repos.User.GetByID(uint(id))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "User not found"}
		return nil, flash.WithError(c, fm).Redirect("/admin/users")
	}
	return user, nil
}

// handleError handles errors consistently
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Printf("Admin Controller Error: %s - %v", message, err)

	fm := fiber.Map{
		"type":    "error",
		"message": message,
	}

	redirectPath := "/admin"
	if strings.Contains(c.Path(), "/users") {
		redirectPath = "/admin/users"
	}

	return flash.WithError(c, fm).Redirect(redirectPath)
}

var adminController *AdminController

// InitializeAdminController initializes the global admin controller
func InitializeAdminController() {
	adminController = NewAdminController(repository.GetGlobalRepositories())
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		InitializeAdminController()
	}
	return adminController
}
