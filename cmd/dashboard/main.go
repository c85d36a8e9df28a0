package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tair/seller-dashboard/internal/app"
	"github.com/tair/seller-dashboard/internal/config"
	"github.com/tair/seller-dashboard/pkg/logger"
	"github.com/tair/seller-dashboard/pkg/tracing"
)

// Set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	root := &cobra.Command{
		Use:          "dashboard",
		Short:        "Seller and admin product dashboard",
		SilenceUsage: true,
	}

	var envFile string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "serve the dashboard and the ops listener",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	serve.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(serve, &cobra.Command{
		Use:   "version",
		Short: "print version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("Version: %s\nCommit: %s\n", version, commit)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, envFile string) error {
	cfg := config.Load(envFile)

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("version", version).
		Msg("Starting seller dashboard")

	if err := cfg.Validate(); err != nil {
		logger.Logger.Error().Err(err).Str("environment", cfg.Environment).Msg("Refusing to start with insecure configuration")
		return err
	}

	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.JaegerEndpoint,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	a, cleanup, err := app.InitializeApp(cfg)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize dashboard")
		return err
	}
	defer cleanup()

	if err := a.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Dashboard stopped with error")
		return err
	}

	logger.Logger.Info().Msg("Dashboard stopped")
	return nil
}
