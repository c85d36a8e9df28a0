// Package remote is the typed HTTP client for the e-commerce API that owns
// products and seller sessions.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tair/seller-dashboard/internal/catalog"
	"github.com/tair/seller-dashboard/internal/config"
	"github.com/tair/seller-dashboard/pkg/logger"
)

// LoggedInSentinel is the verify-seller value for a live session
const LoggedInSentinel = "loggedin"

const maxResponseBytes = 8 << 20

// Operation names used for metrics and logs
const (
	OpVerifySeller  = "verify_seller"
	OpLogout        = "logout"
	OpListProducts  = "list_products"
	OpUpdateProduct = "update_product"
	OpAddProduct    = "add_product"
	OpDeleteProduct = "delete_product"
	OpHealth        = "health"
)

// Client calls the remote e-commerce API
type Client struct {
	baseURL    string
	healthPath string
	timeout    time.Duration
	http       *http.Client
	breaker    *CircuitBreaker
	metrics    *Metrics
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// NewClient creates a client for cfg.BaseURL. The breaker is built from cfg
// unless WithBreaker overrides it.
func NewClient(cfg config.RemoteConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		healthPath: cfg.HealthCheck,
		timeout:    cfg.Timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: NewCircuitBreaker("ecommerce-api", cfg.BreakerFailures, cfg.BreakerCooldown),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Logger.Info().
		Str("base_url", c.baseURL).
		Dur("timeout", c.timeout).
		Bool("breaker", c.breaker != nil).
		Msg("Remote API client initialized")

	return c
}

// BaseURL returns the remote origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Breaker exposes the circuit breaker; nil when disabled
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

type sellerRequest struct {
	SellerID string `json:"sellerId"`
}

// VerifySeller asks whether sellerID is a logged-in session. The response
// status is not consulted; only the loggedIn field decides.
func (c *Client) VerifySeller(ctx context.Context, sellerID string) (bool, error) {
	var resp struct {
		LoggedIn string `json:"loggedIn"`
	}
	err := c.do(ctx, OpVerifySeller, http.MethodPost, "/admin/verify-seller", sellerRequest{SellerID: sellerID}, &resp, false)
	if err != nil {
		return false, err
	}
	return resp.LoggedIn == LoggedInSentinel, nil
}

// Logout terminates the remote session
func (c *Client) Logout(ctx context.Context, sellerID string) error {
	return c.do(ctx, OpLogout, http.MethodPost, "/logout", sellerRequest{SellerID: sellerID}, nil, true)
}

// ListProducts reads the full product collection
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var resp struct {
		Products []catalog.Product `json:"products"`
	}
	if err := c.do(ctx, OpListProducts, http.MethodGet, "/get-product", nil, &resp, true); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []catalog.Product{}
	}
	return resp.Products, nil
}

// UpdateProduct sends the full edited record
func (c *Client) UpdateProduct(ctx context.Context, upd catalog.ProductUpdate) error {
	return c.do(ctx, OpUpdateProduct, http.MethodPut, "/instock-update", upd, nil, true)
}

// AddProduct creates a product from the add form
func (c *Client) AddProduct(ctx context.Context, draft catalog.NewProductDraft) error {
	return c.do(ctx, OpAddProduct, http.MethodPost, "/add-product", draft, nil, true)
}

// DeleteProduct removes one product
func (c *Client) DeleteProduct(ctx context.Context, id catalog.ProductID) error {
	return c.do(ctx, OpDeleteProduct, http.MethodDelete, "/delete-product/"+url.PathEscape(id.String()), nil, nil, true)
}

// Ping checks that the remote origin answers. Any status below 500 counts
// as reachable since the API exposes no dedicated health route.
func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.roundTrip(ctx, OpHealth, http.MethodGet, c.healthPath, nil, nil, false)
	c.metrics.observe(OpHealth, err, time.Since(start))
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any, requireOK bool) error {
	start := time.Now()
	err := c.breaker.Call(func() error {
		return c.roundTrip(ctx, op, method, path, in, out, requireOK)
	})
	c.metrics.observe(op, err, time.Since(start))

	if err != nil {
		logger.Debug(ctx).
			Err(err).
			Str("operation", op).
			Str("method", method).
			Str("path", path).
			Dur("duration", time.Since(start)).
			Msg("Remote call failed")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, in, out any, requireOK bool) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote %s: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("remote %s: read body: %w: %w", op, ErrTransport, err)
	}

	if op == OpHealth && resp.StatusCode >= 500 {
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if requireOK && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: snippet(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("remote %s: %w: %w", op, ErrDecode, err)
	}
	return nil
}

func snippet(b []byte) string {
	const max = 200
	b = bytes.TrimSpace(b)
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
