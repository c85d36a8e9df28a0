// Package health aggregates readiness of the dashboard's dependencies.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/seller-dashboard/pkg/logger"
)

// Status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check reports the health of one dependency
type Check func(ctx context.Context) error

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Report is the aggregated health of the service
type Report struct {
	Service    string                     `json:"service"`
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Uptime     time.Duration              `json:"uptime_seconds"`
}

// Checker runs registered checks concurrently
type Checker struct {
	service   string
	checks    map[string]Check
	startTime time.Time
}

func NewChecker(service string) *Checker {
	return &Checker{
		service:   service,
		checks:    make(map[string]Check),
		startTime: time.Now(),
	}
}

// Register adds a named check; a nil check is ignored
func (h *Checker) Register(name string, check Check) {
	if check == nil {
		return
	}
	h.checks[name] = check
}

// Pinger is anything with a Ping(ctx) error method
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger
func PingCheck(p Pinger) Check {
	return p.Ping
}

// RedisCheck pings Redis; returns nil when client is nil so the component
// is simply not reported
func RedisCheck(client *redis.Client) Check {
	if client == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func (h *Checker) checkComponent(ctx context.Context, name string, check Check) ComponentHealth {
	start := time.Now()
	result := ComponentHealth{Name: name, Status: StatusHealthy, Timestamp: start}

	if err := check(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Latency = time.Since(start)
	return result
}

// CheckAll runs every check concurrently
func (h *Checker) CheckAll(ctx context.Context) Report {
	components := make(map[string]ComponentHealth, len(h.checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, check := range h.checks {
		wg.Add(1)
		go func(n string, c Check) {
			defer wg.Done()
			result := h.checkComponent(ctx, n, c)

			mu.Lock()
			components[n] = result
			mu.Unlock()

			if result.Status == StatusHealthy {
				logger.Logger.Debug().
					Str("component", n).
					Dur("latency", result.Latency).
					Msg("Health check")
			} else {
				logger.Logger.Warn().
					Str("component", n).
					Str("error", result.Error).
					Msg("Health check failed")
			}
		}(name, check)
	}

	wg.Wait()

	return Report{
		Service:    h.service,
		Status:     overallStatus(components),
		Components: components,
		Uptime:     time.Since(h.startTime),
	}
}

func overallStatus(components map[string]ComponentHealth) string {
	healthy := 0
	for _, c := range components {
		if c.Status == StatusHealthy {
			healthy++
		}
	}

	switch {
	case healthy == len(components):
		return StatusHealthy
	case healthy > 0:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// QuickCheck reports liveness without touching dependencies
func (h *Checker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    StatusHealthy,
		"service":   h.service,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
