package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Post("/admin/products/:sellerId/edit/save", rl.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func post(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil))
	require.NoError(t, err)
	return resp
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	rl := NewRateLimiter(nil, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	app := newLimitedApp(rl)

	resp := post(t, app, "/admin/products/s-1/edit/save")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))

	resp = post(t, app, "/admin/products/s-1/edit/save")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = post(t, app, "/admin/products/s-1/edit/save")
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	// limits are per seller
	resp = post(t, app, "/admin/products/s-2/edit/save")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// one token returns after window/limit
	now = now.Add(30 * time.Second)
	resp = post(t, app, "/admin/products/s-1/edit/save")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiter_Disabled(t *testing.T) {
	app := newLimitedApp(NewRateLimiter(nil, 0, time.Minute))

	for i := 0; i < 5; i++ {
		resp := post(t, app, "/admin/products/s-1/edit/save")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_AllowByIdentifier(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Hour)

	ok, _, _ := rl.Allow(context.Background(), "ip:10.0.0.1")
	assert.True(t, ok)
	ok, remaining, reset := rl.Allow(context.Background(), "ip:10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(time.Now()))
}

func TestRateLimiter_SweepDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(nil, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	rl.Allow(ctx, "seller:s-1")
	rl.Allow(ctx, "seller:s-2")
	require.Len(t, rl.local, 2)

	now = now.Add(40 * time.Second)
	rl.Allow(ctx, "seller:s-2")
	assert.Equal(t, 0, rl.Sweep(), "no bucket has been idle for a full window yet")

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, rl.Sweep())
	assert.NotContains(t, rl.local, "seller:s-1")
	assert.Contains(t, rl.local, "seller:s-2")
}

func TestRateLimiter_SweepsOnAccess(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for _, id := range []string{"ip:10.0.0.1", "ip:10.0.0.2", "ip:10.0.0.3"} {
		rl.Allow(ctx, id)
	}
	require.Len(t, rl.local, 3)

	now = now.Add(2 * time.Minute)
	ok, _, _ := rl.Allow(ctx, "ip:10.0.0.4")
	assert.True(t, ok)
	assert.Len(t, rl.local, 1, "idle buckets are evicted once a window has passed")

	// an evicted identifier starts again with a full bucket
	ok, _, _ = rl.Allow(ctx, "ip:10.0.0.1")
	assert.True(t, ok)
}

func TestWindowMember_UniqueForSameInstant(t *testing.T) {
	now := time.Unix(1_700_000_000, 42)
	a, b := windowMember(now), windowMember(now)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1700000000000000042-"))
}
