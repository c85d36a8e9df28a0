// Package shell is the navigation sidebar around every dashboard page.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/seller-dashboard/pkg/logger"
)

type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleSeller Role = "Seller"
)

// Redirect targets when a session ends or fails verification
const (
	LoginPath       = "/login"
	SellerLoginPath = "/seller/login"
)

// ParseRole maps a route segment ("admin", "seller") to a role. Anything
// that is not admin gets the seller menu.
func ParseRole(s string) Role {
	if strings.EqualFold(s, string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleSeller
}

// Prefix is the route segment for the role
func (r Role) Prefix() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "seller"
}

type MenuItem struct {
	Label string
	Icon  string
	Path  string
}

// Active reports an exact match against the current path
func (m MenuItem) Active(currentPath string) bool {
	return m.Path == currentPath
}

type menuEntry struct {
	label, icon, section string
}

var adminMenu = []menuEntry{
	{"Dashboard", "layout-dashboard", ""},
	{"Products", "package", "products"},
	{"Orders", "shopping-bag", "orders"},
	{"Complaints", "message-square", "complaints"},
	{"Customers", "users", "customers"},
	{"Calendar", "calendar", "calendar"},
	{"Coupons", "ticket", "coupons"},
}

var sellerMenu = []menuEntry{
	{"Dashboard", "layout-dashboard", ""},
	{"My Products", "package", "products"},
	{"Orders", "shopping-bag", "orders"},
	{"Messages", "message-square", "messages"},
	{"Analytics", "users", "analytics"},
	{"Calendar", "calendar", "calendar"},
	{"Promotions", "ticket", "promotions"},
}

// Menu returns the role's entries templated with the session identifier
func Menu(role Role, sellerID string) []MenuItem {
	entries := sellerMenu
	if role == RoleAdmin {
		entries = adminMenu
	}

	items := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MenuItem{
			Label: e.label,
			Icon:  e.icon,
			Path:  SectionPath(role, e.section, sellerID),
		})
	}
	return items
}

// SectionPath builds /{role}/{section}/{sellerID}, or /{role}/{sellerID}
// for the dashboard home.
func SectionPath(role Role, section, sellerID string) string {
	if section == "" {
		return fmt.Sprintf("/%s/%s", role.Prefix(), sellerID)
	}
	return fmt.Sprintf("/%s/%s/%s", role.Prefix(), section, sellerID)
}

// SessionTerminator ends a remote seller session
type SessionTerminator interface {
	Logout(ctx context.Context, sellerID string) error
}

// Logout ends the session and returns where to send the browser. On
// failure the error is logged and returned; callers leave the page as is.
func Logout(ctx context.Context, remote SessionTerminator, sellerID string) (string, error) {
	if err := remote.Logout(ctx, sellerID); err != nil {
		logger.ForSeller(ctx, sellerID).Error().Err(err).Msg("Error logging out")
		return "", err
	}
	logger.ForSeller(ctx, sellerID).Info().Msg("Seller logged out")
	return LoginPath, nil
}
