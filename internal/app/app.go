package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tair/seller-dashboard/internal/config"
	"github.com/tair/seller-dashboard/internal/events"
	"github.com/tair/seller-dashboard/internal/view"
	"github.com/tair/seller-dashboard/pkg/logger"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// App is the assembled dashboard: the page server, the ops listener and
// the view sweeper
type App struct {
	Config *config.Config
	Fiber  *fiber.App
	Ops    *http.Server
	Store  *view.Store
	Events events.Publisher
	Redis  *redis.Client
}

func NewApp(cfg *config.Config, fiberApp *fiber.App, ops *http.Server, store *view.Store, pub events.Publisher, rdb *redis.Client) *App {
	return &App{
		Config: cfg,
		Fiber:  fiberApp,
		Ops:    ops,
		Store:  store,
		Events: pub,
		Redis:  rdb,
	}
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// listeners down
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Store.Run(gctx, sweepInterval)
		return nil
	})

	g.Go(func() error {
		logger.Logger.Info().
			Str("port", a.Config.Port).
			Str("remote", a.Config.Remote.BaseURL).
			Msg("Dashboard listening")
		if err := a.Fiber.Listen(":" + a.Config.Port); err != nil {
			return fmt.Errorf("dashboard listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Logger.Info().
			Str("port", a.Config.OpsPort).
			Str("metrics_endpoint", "/metrics").
			Msg("Ops listener started")
		if err := a.Ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops listener: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Logger.Info().Msg("Shutting down dashboard...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := a.Ops.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error().Err(err).Msg("Ops listener forced to shutdown")
		}
		return a.Fiber.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to write response")
	}
}
