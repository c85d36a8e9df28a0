// Package web serves the dashboard pages. Each GET of a product page mounts a
// fresh view; every button on the page posts back to an action route that
// mutates that view and re-renders it.
package web

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/events"
	"github.com/tair/seller-dashboard/internal/shell"
	"github.com/tair/seller-dashboard/internal/view"
	"github.com/tair/seller-dashboard/pkg/logger"
)

// viewportHints asks browsers to report their width on later requests
const viewportHints = "Sec-CH-Viewport-Width, Viewport-Width"

// Remote is what the pages need from the e-commerce API
type Remote interface {
	view.Remote
	shell.SessionTerminator
}

// Handler owns the mounted views and renders them
type Handler struct {
	remote     Remote
	store      *view.Store
	tokens     *Tokens
	renderer   *Renderer
	events     events.Publisher
	breakpoint int
	actions    *prometheus.CounterVec
}

// NewHandler registers dashboard_actions_total on reg when reg is not nil
func NewHandler(remote Remote, store *view.Store, tokens *Tokens, renderer *Renderer, publisher events.Publisher, breakpoint int, reg prometheus.Registerer) *Handler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	h := &Handler{
		remote:     remote,
		store:      store,
		tokens:     tokens,
		renderer:   renderer,
		events:     publisher,
		breakpoint: breakpoint,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_actions_total",
			Help: "Product page actions by outcome",
		}, []string{"action", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(h.actions)
	}
	return h
}

func productsPath(role shell.Role, sellerID string) string {
	return shell.SectionPath(role, "products", sellerID)
}

// Mount verifies the session, loads the products and renders a new view
func (h *Handler) Mount(role shell.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sellerID := c.Params("sellerId")

		v := view.New(sellerID, h.remote,
			view.WithRole(role),
			view.WithEvents(h.events),
			view.WithMenu(shell.NewLayout(h.breakpoint, viewportWidth(c))),
		)
		if err := v.Mount(c.UserContext()); err != nil {
			h.count("mount", err)
			return c.Redirect(shell.SellerLoginPath, fiber.StatusFound)
		}
		h.count("mount", nil)

		return h.render(c, h.store.Put(v), v)
	}
}

// actionFunc applies one page interaction to a mounted view
type actionFunc func(c *fiber.Ctx, v *view.ProductView) error

// Action resolves the view named by the form's token, applies fn and
// re-renders. A missing or stale token sends the browser back to the page,
// which mounts a new view.
func (h *Handler) Action(role shell.Role, name string, fn actionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sellerID := c.Params("sellerId")
		page := productsPath(role, sellerID)

		claims, err := h.tokens.Parse(c.FormValue("view"))
		if err != nil || claims.SellerID != sellerID || claims.Role != string(role) {
			logger.Debug(c.UserContext()).Err(err).Str("action", name).Msg("Stale view token, remounting")
			return c.Redirect(page, fiber.StatusSeeOther)
		}
		v, ok := h.store.Get(claims.ViewID)
		if !ok {
			return c.Redirect(page, fiber.StatusSeeOther)
		}

		v.ResizeMenu(viewportWidth(c))

		err = fn(c, v)
		h.count(name, err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return err
		}
		// other failures were logged by the view, which kept its state
		return h.render(c, claims.ViewID, v)
	}
}

// Logout ends the remote session. On failure the browser gets 204 so the
// current page stays as it is.
func (h *Handler) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()
	sellerID := c.Params("sellerId")

	target, err := shell.Logout(ctx, h.remote, sellerID)
	h.count("logout", err)
	if err != nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if claims, err := h.tokens.Parse(c.FormValue("view")); err == nil && claims.SellerID == sellerID {
		h.store.Delete(claims.ViewID)
	}
	if err := h.events.Publish(ctx, events.Event{EventType: events.EventTypeSellerLogout, SellerID: sellerID}); err != nil {
		logger.ForSeller(ctx, sellerID).Warn().Err(err).Msg("Failed to publish logout event")
	}

	return c.Redirect(target, fiber.StatusSeeOther)
}

func (h *Handler) render(c *fiber.Ctx, viewID string, v *view.ProductView) error {
	role, sellerID := v.Role(), v.SellerID()

	token, err := h.tokens.Issue(viewID, sellerID, role)
	if err != nil {
		return err
	}

	page := productsPath(role, sellerID)
	body, err := h.renderer.Render(Page{
		Title:       h.renderer.Title(role),
		View:        v.Snapshot(),
		Menu:        shell.Menu(role, sellerID),
		CurrentPath: page,
		PagePath:    page,
		LogoutPath:  "/logout/" + url.PathEscape(sellerID),
		Token:       token,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("Accept-CH", viewportHints)
	c.Type("html", "utf-8")
	return c.Send(body)
}

func (h *Handler) count(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.actions.WithLabelValues(action, outcome).Inc()
}

// viewportWidth reads the width reported by the page script or a client
// hint. Zero means unknown.
func viewportWidth(c *fiber.Ctx) int {
	for _, raw := range []string{c.FormValue("vw"), c.Get("Sec-CH-Viewport-Width"), c.Get("Viewport-Width")} {
		if w, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && w > 0 {
			return w
		}
	}
	return 0
}

func hasField(c *fiber.Ctx, key string) bool {
	return c.Request().PostArgs().Has(key)
}

func formFloat(c *fiber.Ctx, key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue(key)), 64)
	if err != nil {
		return 0
	}
	return f
}

func formInt(c *fiber.Ctx, key string) int {
	s := strings.TrimSpace(c.FormValue(key))
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return int(formFloat(c, key))
}

func editDraftFrom(c *fiber.Ctx) catalog.EditDraft {
	return catalog.EditDraft{
		Name:           c.FormValue("name"),
		Category:       c.FormValue("category"),
		Price:          formFloat(c, "price"),
		InStockValue:   formInt(c, "inStockValue"),
		SoldStockValue: formInt(c, "soldStockValue"),
		Description:    c.FormValue("description"),
	}
}

func newProductFrom(c *fiber.Ctx) catalog.NewProductDraft {
	return catalog.NewProductDraft{
		Name:         c.FormValue("name"),
		Category:     c.FormValue("category"),
		Price:        formFloat(c, "price"),
		InStockValue: formInt(c, "inStockValue"),
		Description:  c.FormValue("description"),
	}
}

func sortAction(c *fiber.Ctx, v *view.ProductView) error {
	key, ok := catalog.ParseSortKey(c.FormValue("key"))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "unknown sort key")
	}
	v.SortBy(key)
	return nil
}

func searchAction(c *fiber.Ctx, v *view.ProductView) error {
	v.Search(c.FormValue("q"))
	return nil
}

func toggleSearchAction(_ *fiber.Ctx, v *view.ProductView) error {
	v.ToggleSearch()
	return nil
}

func toggleMenuAction(_ *fiber.Ctx, v *view.ProductView) error {
	v.ToggleMenu()
	return nil
}

func editAction(c *fiber.Ctx, v *view.ProductView) error {
	return v.Edit(c.Params("productId"))
}

func editDraftAction(c *fiber.Ctx, v *view.ProductView) error {
	return v.UpdateDraft(editDraftFrom(c))
}

// saveAction applies the submitted row fields, if any, then saves
func saveAction(c *fiber.Ctx, v *view.ProductView) error {
	if hasField(c, "name") {
		if err := v.UpdateDraft(editDraftFrom(c)); err != nil {
			return err
		}
	}
	return v.Save(c.UserContext())
}

func cancelEditAction(_ *fiber.Ctx, v *view.ProductView) error {
	v.CancelEdit()
	return nil
}

func openAddAction(_ *fiber.Ctx, v *view.ProductView) error {
	v.OpenAdd()
	return nil
}

// closeAddAction keeps whatever was typed for the next open
func closeAddAction(c *fiber.Ctx, v *view.ProductView) error {
	if hasField(c, "name") {
		v.UpdateNewProduct(newProductFrom(c))
	}
	v.CloseAdd()
	return nil
}

func addDraftAction(c *fiber.Ctx, v *view.ProductView) error {
	v.UpdateNewProduct(newProductFrom(c))
	return nil
}

func addAction(c *fiber.Ctx, v *view.ProductView) error {
	if hasField(c, "name") {
		v.UpdateNewProduct(newProductFrom(c))
	}
	return v.Add(c.UserContext())
}

func deleteAction(c *fiber.Ctx, v *view.ProductView) error {
	return v.Delete(c.UserContext(), c.Params("productId"))
}
