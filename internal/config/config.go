package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultViewTokenSecret signs view tokens when VIEW_TOKEN_SECRET is unset.
// It is public, so it is only accepted in development.
const DefaultViewTokenSecret = "change-me-in-production"

var ErrDefaultViewTokenSecret = errors.New("VIEW_TOKEN_SECRET must be set outside development")

// RemoteConfig describes the upstream e-commerce API the dashboard drives
type RemoteConfig struct {
	BaseURL         string
	Timeout         time.Duration
	HealthCheck     string
	BreakerFailures int // 0 disables the circuit breaker
	BreakerCooldown time.Duration
}

// Config holds the dashboard configuration
type Config struct {
	Port        string
	OpsPort     string
	Environment string
	LogLevel    string
	ServiceName string
	Brand       string

	Remote RemoteConfig

	MenuBreakpoint  int
	ViewTTL         time.Duration
	ViewTokenSecret string

	RedisAddr          string
	RedisPassword      string
	RateLimitPerMinute int

	KafkaBrokers []string
	KafkaTopic   string

	JaegerEndpoint     string
	CORSAllowedOrigins string
}

// IsDevelopment reports whether console logging should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate rejects settings that are only safe on a developer machine
func (c *Config) Validate() error {
	if !c.IsDevelopment() && c.ViewTokenSecret == DefaultViewTokenSecret {
		return ErrDefaultViewTokenSecret
	}
	return nil
}

// Load reads an optional .env file followed by the process environment
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	return &Config{
		Port:        getEnv("DASHBOARD_PORT", "8000"),
		OpsPort:     getEnv("OPS_PORT", "9100"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServiceName: getEnv("OTEL_SERVICE_NAME", "seller-dashboard"),
		Brand:       getEnv("DASHBOARD_BRAND", "Mera Bestie"),
		Remote: RemoteConfig{
			BaseURL:         strings.TrimRight(getEnv("REMOTE_BASE_URL", "https://ecommercebackend-8gx8.onrender.com"), "/"),
			Timeout:         getDuration("REMOTE_TIMEOUT", 30*time.Second),
			HealthCheck:     getEnv("REMOTE_HEALTH_PATH", "/"),
			BreakerFailures: getInt("REMOTE_BREAKER_FAILURES", 0),
			BreakerCooldown: getDuration("REMOTE_BREAKER_COOLDOWN", 30*time.Second),
		},
		MenuBreakpoint:     getInt("MENU_BREAKPOINT", 1024),
		ViewTTL:            getDuration("VIEW_TTL", 30*time.Minute),
		ViewTokenSecret:    getEnv("VIEW_TOKEN_SECRET", DefaultViewTokenSecret),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 60),
		KafkaBrokers:       getList("KAFKA_BROKERS"),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "dashboard-activity"),
		JaegerEndpoint:     os.Getenv("JAEGER_ENDPOINT"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
