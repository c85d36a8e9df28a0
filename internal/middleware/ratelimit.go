package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/tair/seller-dashboard/pkg/logger"
)

// RateLimiter caps mutating dashboard actions per seller. Counts live in a
// Redis sliding window so every replica shares them; without Redis, or when
// Redis errors, a token bucket per identifier is used instead.
type RateLimiter struct {
	redis       *redis.Client
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu        sync.Mutex
	local     map[string]*localBucket
	lastSweep time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		local:       make(map[string]*localBucket),
	}
}

// Middleware returns the fiber handler. A non-positive limit disables it.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.maxRequests <= 0 {
			return c.Next()
		}

		identifier := "ip:" + c.IP()
		if sellerID := c.Params("sellerId"); sellerID != "" {
			identifier = "seller:" + sellerID
		}

		allowed, remaining, resetTime := rl.Allow(c.UserContext(), identifier)

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			logger.Warn(c.UserContext()).
				Str("identifier", identifier).
				Int("limit", rl.maxRequests).
				Msg("Rate limit exceeded")

			retryAfter := time.Until(resetTime).Round(time.Second)
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
			return fiber.NewError(fiber.StatusTooManyRequests,
				fmt.Sprintf("Too many requests. Try again in %v", retryAfter))
		}

		return c.Next()
	}
}

// Allow records one request for identifier
func (rl *RateLimiter) Allow(ctx context.Context, identifier string) (bool, int, time.Time) {
	if rl.redis != nil {
		allowed, remaining, reset, err := rl.checkRedis(ctx, identifier)
		if err == nil {
			return allowed, remaining, reset
		}
		logger.Logger.Error().
			Err(err).
			Str("identifier", identifier).
			Msg("Rate limiter error, using local limiter")
	}
	return rl.checkLocal(identifier)
}

// checkRedis implements a sliding window over a sorted set of timestamps
func (rl *RateLimiter) checkRedis(ctx context.Context, identifier string) (bool, int, time.Time, error) {
	key := "dashboard:ratelimit:" + identifier
	now := rl.now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: windowMember(now),
	})
	pipe.Expire(ctx, key, rl.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := countCmd.Val()
	remaining := rl.maxRequests - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}
	return count < int64(rl.maxRequests), remaining, now.Add(rl.window), nil
}

// windowMember names one request in the sliding window. Concurrent requests
// can share a timestamp, so a uuid keeps them distinct.
func windowMember(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
}

func (rl *RateLimiter) checkLocal(identifier string) (bool, int, time.Time) {
	now := rl.now()

	rl.mu.Lock()
	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweepLocked(now)
	}
	b, ok := rl.local[identifier]
	if !ok {
		b = &localBucket{limiter: rate.NewLimiter(rate.Every(rl.interval()), rl.maxRequests)}
		rl.local[identifier] = b
	}
	b.lastSeen = now
	lim := b.limiter
	rl.mu.Unlock()

	allowed := lim.AllowN(now, 1)
	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if !allowed || remaining == 0 {
		reset = now.Add(rl.interval())
	}
	return allowed, remaining, reset
}

// Sweep drops local buckets idle for a full window and returns how many
// were removed. Such a bucket has refilled, so dropping it loses nothing.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.sweepLocked(rl.now())
}

func (rl *RateLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for id, b := range rl.local {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.local, id)
			removed++
		}
	}
	rl.lastSweep = now
	return removed
}

// interval is how often the local bucket regains one token
func (rl *RateLimiter) interval() time.Duration {
	return rl.window / time.Duration(rl.maxRequests)
}
