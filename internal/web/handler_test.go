package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/health"
	"github.com/tair/seller-dashboard/internal/middleware"
	"github.com/tair/seller-dashboard/internal/remote"
	"github.com/tair/seller-dashboard/internal/view"
)

type fakeRemote struct {
	mu         sync.Mutex
	loggedIn   bool
	products   []catalog.Product
	updates    []catalog.ProductUpdate
	added      []catalog.NewProductDraft
	failSave   bool
	failLogout bool
	loggedOut  []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		loggedIn: true,
		products: []catalog.Product{
			{ProductID: catalog.NumberID("1"), Name: "Soap", Category: "bath", Price: 50, InStockValue: 4},
			{ProductID: catalog.NumberID("2"), Name: "Candle", Category: "home", Price: 30, InStockValue: 8},
		},
	}
}

func (f *fakeRemote) VerifySeller(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn, nil
}

func (f *fakeRemote) ListProducts(context.Context) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Product(nil), f.products...), nil
}

func (f *fakeRemote) UpdateProduct(_ context.Context, upd catalog.ProductUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return &remote.StatusError{Op: remote.OpUpdateProduct, Code: http.StatusInternalServerError}
	}
	f.updates = append(f.updates, upd)
	for i, p := range f.products {
		if p.ProductID == upd.ProductID {
			f.products[i] = catalog.Product{
				ProductID: p.ProductID, Name: upd.Name, Category: upd.Category, Price: upd.Price,
				InStockValue: upd.InStockValue, SoldStockValue: upd.SoldStockValue, Description: upd.Description,
			}
		}
	}
	return nil
}

func (f *fakeRemote) AddProduct(_ context.Context, draft catalog.NewProductDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, draft)
	f.products = append(f.products, catalog.Product{ProductID: catalog.NumberID("3"), Name: draft.Name, Price: draft.Price})
	return nil
}

func (f *fakeRemote) DeleteProduct(_ context.Context, id catalog.ProductID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ProductID == id {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return &remote.StatusError{Op: remote.OpDeleteProduct, Code: http.StatusNotFound}
}

func (f *fakeRemote) Logout(_ context.Context, sellerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLogout {
		return remote.ErrTransport
	}
	f.loggedOut = append(f.loggedOut, sellerID)
	return nil
}

type testEnv struct {
	app     *fiber.App
	remote  *fakeRemote
	handler *Handler
	store   *view.Store
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	renderer, err := NewRenderer("Mera Bestie")
	require.NoError(t, err)

	fr := newFakeRemote()
	store := view.NewStore(time.Hour, nil)
	h := NewHandler(fr, store, NewTokens("test-secret", time.Hour), renderer, nil, 1024, prometheus.NewRegistry())

	checker := health.NewChecker("seller-dashboard")
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, h, limiter, checker)

	return &testEnv{app: app, remote: fr, handler: h, store: store}
}

var tokenPattern = regexp.MustCompile(`name="view" value="([^"]+)"`)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (e *testEnv) get(t *testing.T, path string, header ...string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	return resp
}

// mount loads the page and returns its body and view token
func (e *testEnv) mount(t *testing.T, path string) (string, string) {
	t.Helper()
	resp := e.get(t, path)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)

	m := tokenPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "page has no view token")
	return body, m[1]
}

func (e *testEnv) action(t *testing.T, path, token string, form url.Values) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("view", token)
	resp := e.post(t, path, form)
	if resp.StatusCode != fiber.StatusOK {
		return resp, ""
	}
	return resp, readBody(t, resp)
}

func before(body, a, b string) bool {
	i, j := strings.Index(body, a), strings.Index(body, b)
	return i >= 0 && j >= 0 && i < j
}

func TestMount_RendersPage(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/admin/products/s-1", "Sec-CH-Viewport-Width", "600")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Accept-CH"), "Sec-CH-Viewport-Width")
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))

	body := readBody(t, resp)
	assert.Contains(t, body, "<title>Products | Admin | Mera Bestie</title>")
	assert.True(t, before(body, "Soap", "Candle"))
	assert.Contains(t, body, `href="/admin/products/s-1" data-icon="package" class="active"`)
	assert.Contains(t, body, `action="/logout/s-1"`)
	// narrow viewport: collapsed, toggle available
	assert.Contains(t, body, `class="sidebar collapsed"`)
	assert.Contains(t, body, "/admin/products/s-1/menu/toggle")
	assert.Equal(t, 1, env.store.Len())
}

func TestMount_SellerMenu(t *testing.T) {
	env := newTestEnv(t, nil)

	body, _ := env.mount(t, "/seller/products/s-1")
	assert.Contains(t, body, "<title>Products | Seller | Mera Bestie</title>")
	assert.Contains(t, body, "My Products")
	assert.Contains(t, body, "/seller/promotions/s-1")
	assert.NotContains(t, body, "/menu/toggle")
}

func TestMount_RedirectsWhenNotLoggedIn(t *testing.T) {
	env := newTestEnv(t, nil)
	env.remote.loggedIn = false

	resp := env.get(t, "/admin/products/s-1")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/seller/login", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, 0, env.store.Len())

	resp = env.get(t, "/seller/products")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/seller/login", resp.Header.Get(fiber.HeaderLocation))
}

func TestAction_SortAndSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.mount(t, "/admin/products/s-1")

	resp, body := env.action(t, "/admin/products/s-1/sort", token, url.Values{"key": {"price"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, before(body, "Candle", "Soap"))
	assert.Contains(t, body, "Price ▲")

	_, body = env.action(t, "/admin/products/s-1/sort", token, url.Values{"key": {"price"}})
	assert.True(t, before(body, "Soap", "Candle"))
	assert.Contains(t, body, "Price ▼")

	_, body = env.action(t, "/admin/products/s-1/search", token, url.Values{"q": {"can"}})
	assert.Contains(t, body, "Candle")
	assert.NotContains(t, body, "<td>Soap</td>")

	resp, _ = env.action(t, "/admin/products/s-1/sort", token, url.Values{"key": {"bogus"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAction_StaleTokenRemounts(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.action(t, "/admin/products/s-1/sort", "garbage", url.Values{"key": {"name"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/products/s-1", resp.Header.Get(fiber.HeaderLocation))

	// a token for another seller is not accepted
	_, token := env.mount(t, "/admin/products/s-2")
	resp, _ = env.action(t, "/admin/products/s-1/sort", token, url.Values{"key": {"name"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
}

func TestAction_EditAndSave(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.mount(t, "/admin/products/s-1")
	page := "/admin/products/s-1"

	_, body := env.action(t, page+"/edit/1", token, nil)
	assert.Contains(t, body, `form="edit-form" type="text" name="name" value="Soap"`)

	fields := url.Values{
		"name": {"Soap XL"}, "category": {"bath"}, "price": {"55.5"},
		"inStockValue": {"3"}, "soldStockValue": {"1"}, "description": {"big"},
	}

	env.remote.failSave = true
	_, body = env.action(t, page+"/edit/save", token, fields)
	assert.Contains(t, body, `value="Soap XL"`, "failed save keeps the draft")
	assert.Empty(t, env.remote.updates)

	env.remote.failSave = false
	_, body = env.action(t, page+"/edit/save", token, fields)
	require.Len(t, env.remote.updates, 1)
	assert.Equal(t, catalog.ProductUpdate{ProductID: catalog.NumberID("1"), EditDraft: catalog.EditDraft{
		Name: "Soap XL", Category: "bath", Price: 55.5, InStockValue: 3, SoldStockValue: 1, Description: "big",
	}}, env.remote.updates[0])
	assert.NotContains(t, body, `id="edit-form"`)
	assert.Contains(t, body, "<td>Soap XL</td>")
	assert.Contains(t, body, "<td>55.5</td>")
}

func TestAction_AddAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.mount(t, "/seller/products/s-1")
	page := "/seller/products/s-1"

	_, body := env.action(t, page+"/add/open", token, nil)
	assert.Contains(t, body, "Add New Product")

	_, body = env.action(t, page+"/add/close", token, url.Values{"name": {"Diffuser"}})
	assert.NotContains(t, body, "Add New Product")

	_, body = env.action(t, page+"/add/open", token, nil)
	assert.Contains(t, body, `name="name" placeholder="Name" value="Diffuser"`)

	_, body = env.action(t, page+"/add", token, url.Values{"name": {"Diffuser"}, "price": {"80"}, "inStockValue": {"2"}})
	require.Len(t, env.remote.added, 1)
	assert.Equal(t, 80.0, env.remote.added[0].Price)
	assert.NotContains(t, body, "Add New Product")
	assert.Contains(t, body, "<td>Diffuser</td>")

	_, body = env.action(t, page+"/delete/404", token, nil)
	assert.Contains(t, body, "<td>Soap</td>")
	assert.Contains(t, body, "<td>Candle</td>")

	_, body = env.action(t, page+"/delete/1", token, nil)
	assert.NotContains(t, body, "<td>Soap</td>")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.handler.actions.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.handler.actions.WithLabelValues("delete", "ok")))
}

func TestAction_MenuToggle(t *testing.T) {
	env := newTestEnv(t, nil)
	// no width reported: wide layout, menu pinned open
	body, token := env.mount(t, "/admin/products/s-1")
	assert.Contains(t, body, `class="sidebar"`)
	page := "/admin/products/s-1"
	narrow := func() url.Values { return url.Values{"vw": {"600"}} }

	// the narrow width collapses the menu, then the toggle opens it
	_, body = env.action(t, page+"/menu/toggle", token, narrow())
	assert.Contains(t, body, `class="sidebar"`)

	_, body = env.action(t, page+"/menu/toggle", token, narrow())
	assert.Contains(t, body, `class="sidebar collapsed"`)

	_, body = env.action(t, page+"/menu/toggle", token, narrow())
	assert.Contains(t, body, `class="sidebar"`)

	_, body = env.action(t, page+"/search/toggle", token, narrow())
	assert.Contains(t, body, `class="sidebar"`, "same-side width keeps the toggled menu")
	assert.NotContains(t, body, `class="search collapsed"`)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.mount(t, "/admin/products/s-1")

	env.remote.failLogout = true
	resp := env.post(t, "/logout/s-1", url.Values{"view": {token}})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, env.store.Len())

	env.remote.failLogout = false
	resp = env.post(t, "/logout/s-1", url.Values{"view": {token}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, []string{"s-1"}, env.remote.loggedOut)
	assert.Equal(t, 0, env.store.Len())
}

func TestMutationsAreRateLimited(t *testing.T) {
	env := newTestEnv(t, middleware.NewRateLimiter(nil, 1, time.Hour))
	_, token := env.mount(t, "/admin/products/s-1")
	page := "/admin/products/s-1"

	resp, _ := env.action(t, page+"/delete/404", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.action(t, page+"/delete/404", token, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	// view-only actions are not limited
	resp, _ = env.action(t, page+"/sort", token, url.Values{"key": {"name"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		resp := env.get(t, path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}
