// Package app assembles the dashboard from configuration.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/wire"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/tair/seller-dashboard/internal/config"
	"github.com/tair/seller-dashboard/internal/events"
	"github.com/tair/seller-dashboard/internal/health"
	"github.com/tair/seller-dashboard/internal/middleware"
	"github.com/tair/seller-dashboard/internal/remote"
	"github.com/tair/seller-dashboard/internal/view"
	"github.com/tair/seller-dashboard/internal/web"
	"github.com/tair/seller-dashboard/pkg/logger"
)

// ProviderSet builds every dashboard component from *config.Config
var ProviderSet = wire.NewSet(
	ProvideRegistry,
	ProvideRedis,
	ProvidePublisher,
	ProvideRemoteMetrics,
	ProvideRemoteClient,
	ProvideStore,
	ProvideTokens,
	ProvideRenderer,
	ProvideHandler,
	ProvideRateLimiter,
	ProvideHealthChecker,
	ProvideFiberApp,
	ProvideOpsServer,
	NewApp,
)

// ProvideRegistry creates the metrics registry served on the ops listener
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideRedis connects to Redis for shared rate limiting. It returns nil
// when no address is configured or the server does not answer.
func ProvideRedis(cfg *config.Config) (*redis.Client, func()) {
	if cfg.RedisAddr == "" {
		logger.Logger.Info().Msg("REDIS_ADDR not set, using in-process rate limiting")
		return nil, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", cfg.RedisAddr).
			Msg("Failed to connect to Redis - using in-process rate limiting")
		_ = client.Close()
		return nil, func() {}
	}

	logger.Logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("Connected to Redis for rate limiting")
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// ProvidePublisher connects the Kafka producer. Without brokers, or when
// they cannot be reached, events are discarded.
func ProvidePublisher(cfg *config.Config) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, func() {}
	}

	pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.Logger.Warn().
			Err(err).
			Strs("brokers", cfg.KafkaBrokers).
			Msg("Kafka unavailable - dashboard events disabled")
		return events.Noop{}, func() {}
	}

	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to close Kafka publisher")
		}
	}
}

func ProvideRemoteMetrics(reg *prometheus.Registry) *remote.Metrics {
	return remote.NewMetrics(reg)
}

func ProvideRemoteClient(cfg *config.Config, m *remote.Metrics) *remote.Client {
	return remote.NewClient(cfg.Remote, remote.WithMetrics(m))
}

func ProvideStore(cfg *config.Config, reg *prometheus.Registry) *view.Store {
	return view.NewStore(cfg.ViewTTL, reg)
}

func ProvideTokens(cfg *config.Config) *web.Tokens {
	return web.NewTokens(cfg.ViewTokenSecret, cfg.ViewTTL)
}

func ProvideRenderer(cfg *config.Config) (*web.Renderer, error) {
	return web.NewRenderer(cfg.Brand)
}

func ProvideHandler(cfg *config.Config, client *remote.Client, store *view.Store, tokens *web.Tokens, renderer *web.Renderer, pub events.Publisher, reg *prometheus.Registry) *web.Handler {
	return web.NewHandler(client, store, tokens, renderer, pub, cfg.MenuBreakpoint, reg)
}

// ProvideRateLimiter limits mutating actions per seller per minute
func ProvideRateLimiter(cfg *config.Config, client *redis.Client) *middleware.RateLimiter {
	return middleware.NewRateLimiter(client, cfg.RateLimitPerMinute, time.Minute)
}

func ProvideHealthChecker(cfg *config.Config, client *remote.Client, rdb *redis.Client) *health.Checker {
	checker := health.NewChecker(cfg.ServiceName)
	checker.Register("ecommerce-api", health.PingCheck(client))
	checker.Register("redis", health.RedisCheck(rdb))
	return checker
}

// ProvideFiberApp builds the page server with its global middleware
func ProvideFiberApp(cfg *config.Config, h *web.Handler, limiter *middleware.RateLimiter, checker *health.Checker) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Seller Dashboard",
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.Remote.Timeout + 10*time.Second,
		IdleTimeout:           30 * time.Second,
		UnescapePath:          true,
		DisableStartupMessage: !cfg.IsDevelopment(),
		ErrorHandler:          web.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestid.New())
	app.Use(middleware.Tracing(cfg.ServiceName))
	app.Use(middleware.StructuredLogging())

	origins := cfg.CORSAllowedOrigins
	app.Use(fibercors.New(fibercors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-Id, traceparent, tracestate, Sec-CH-Viewport-Width, Viewport-Width",
		AllowCredentials: origins != "*",
		ExposeHeaders:    "X-Request-Id, X-Trace-Id, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:           86400,
	}))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	web.SetupRoutes(app, h, limiter, checker)
	return app
}

// ProvideOpsServer serves metrics and readiness on a separate port
func ProvideOpsServer(cfg *config.Config, reg *prometheus.Registry, checker *health.Checker) *http.Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	router.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		report := checker.CheckAll(ctx)
		status := http.StatusOK
		if report.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:              ":" + cfg.OpsPort,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
