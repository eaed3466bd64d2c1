package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/app/repository"
	"github.com/vibestack/vibestack/internal/pkg/usercontext"
	"github.com/vibestack/vibestack/internal/pkg/utils"
)

const libraryPerPage = 24

// HandleUserDashboard renders the signed-in user's overview: profile,
// credit balance and the current subscription state.
func HandleUserDashboard(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	var sub *models.Subscription
	if s, err := repos.Subscription.GetByUserID(user.ID); err == nil {
		sub = s
	}

	purchaseIDs, _ := repos.Purchase.CompletedContentIDs(user.ID)

	return renderPage(c, "user/dashboard", "Dashboard", fiber.Map{
		"User":          user,
		"GravatarURL":   utils.GetGravatarURL(user.Email, 200),
		"CreditBalance": user.CreditBalance,
		"Subscription":  sub,
		"UnlockCount":   len(purchaseIDs),
		"MemberSince":   user.CreatedAt.Format("2006-01-02"),
	})
}

// HandleUserLibrary lists everything the user paid for: one-off unlocks
// with their payment records.
func HandleUserLibrary(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * libraryPerPage

	repos := repository.GetGlobalRepositories()
	purchases, err := repos.Purchase.GetByUserID(userCtx.UserID, offset, libraryPerPage)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not load your library")
	}

	type libraryEntry struct {
		Purchase models.Purchase
		Content  *models.Content
	}

	entries := make([]libraryEntry, 0, len(purchases))
	for _, p := range purchases {
		entry := libraryEntry{Purchase: p}
		if p.ContentID != 0 {
			if content, err := repos.Content.GetByID(p.ContentID); err == nil {
				entry.Content = content
			}
		}
		entries = append(entries, entry)
	}

	return renderPage(c, "user/library", "My Library", fiber.Map{
		"Entries":  entries,
		"Page":     page,
		"HasNext":  len(purchases) == libraryPerPage,
		"PrevPage": page - 1,
		"NextPage": page + 1,
	})
}

// HandleUserSubscription renders the subscription management page with the
// cancel and resync forms.
func HandleUserSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	var sub *models.Subscription
	if s, err := repository.GetGlobalRepositories().Subscription.GetByUserID(userCtx.UserID); err == nil {
		sub = s
	}

	data := fiber.Map{"Subscription": sub}
	if sub != nil {
		data["IsEntitling"] = sub.IsEntitling()
		data["CancelPending"] = sub.CancelAtPeriodEnd
		if sub.CurrentPeriodEnd != nil {
			data["PeriodEnd"] = sub.CurrentPeriodEnd.Format("2006-01-02")
		}
	}

	return renderPage(c, "user/subscription", "Subscription", data)
}
