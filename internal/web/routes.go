package web

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/seller-dashboard/internal/health"
	"github.com/tair/seller-dashboard/internal/middleware"
	"github.com/tair/seller-dashboard/internal/shell"
)

// ActionRoute maps a product page button to its handler
type ActionRoute struct {
	Path        string
	Name        string
	Description string
	Mutating    bool // calls the remote API; rate limited
	Handle      actionFunc
}

// ActionRoutes are registered under <role>/products/:sellerId. Fixed
// segments come before the :productId routes they would otherwise shadow.
var ActionRoutes = []ActionRoute{
	{Path: "/sort", Name: "sort", Description: "Sort by column", Handle: sortAction},
	{Path: "/search", Name: "search", Description: "Filter by id or name", Handle: searchAction},
	{Path: "/search/toggle", Name: "search_toggle", Description: "Expand search on narrow screens", Handle: toggleSearchAction},
	{Path: "/menu/toggle", Name: "menu_toggle", Description: "Show or hide the sidebar", Handle: toggleMenuAction},
	{Path: "/edit/draft", Name: "edit_draft", Description: "Update the row being edited", Handle: editDraftAction},
	{Path: "/edit/save", Name: "save", Description: "Save the edited row", Mutating: true, Handle: saveAction},
	{Path: "/edit/cancel", Name: "edit_cancel", Description: "Discard the edited row", Handle: cancelEditAction},
	{Path: "/edit/:productId", Name: "edit", Description: "Start editing a row", Handle: editAction},
	{Path: "/add/open", Name: "add_open", Description: "Open the add product form", Handle: openAddAction},
	{Path: "/add/close", Name: "add_close", Description: "Close the add product form", Handle: closeAddAction},
	{Path: "/add/draft", Name: "add_draft", Description: "Update the add product form", Handle: addDraftAction},
	{Path: "/add", Name: "add", Description: "Create a product", Mutating: true, Handle: addAction},
	{Path: "/delete/:productId", Name: "delete", Description: "Delete a product", Mutating: true, Handle: deleteAction},
}

// SetupRoutes registers pages, actions and health checks. limiter may be nil.
func SetupRoutes(app *fiber.App, h *Handler, limiter *middleware.RateLimiter, checker *health.Checker) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(checker.QuickCheck())
	})

	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "alive",
		})
	})

	app.Get("/health/ready", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		report := checker.CheckAll(ctx)

		status := fiber.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(report)
	})

	var limited []fiber.Handler
	if limiter != nil {
		limited = append(limited, limiter.Middleware())
	}

	for _, role := range []shell.Role{shell.RoleAdmin, shell.RoleSeller} {
		registerProductRoutes(app, h, role, limited)
	}

	app.Post("/logout/:sellerId", append(append([]fiber.Handler{}, limited...), h.Logout)...)
}

func registerProductRoutes(app *fiber.App, h *Handler, role shell.Role, limited []fiber.Handler) {
	group := app.Group("/" + role.Prefix() + "/products")

	// no session identifier in the URL
	group.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(shell.SellerLoginPath, fiber.StatusFound)
	})

	group.Get("/:sellerId", h.Mount(role))

	for _, route := range ActionRoutes {
		handler := h.Action(role, route.Name, route.Handle)
		if route.Mutating {
			group.Post("/:sellerId"+route.Path, append(append([]fiber.Handler{}, limited...), handler)...)
			continue
		}
		group.Post("/:sellerId"+route.Path, handler)
	}
}
