// Command server runs the referral HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/app"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("referral service exited", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New("referral-service", cfg.LogLevel)
	slog.SetDefault(log)

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	log.Info("referral service starting",
		slog.String("environment", cfg.Environment),
		slog.String("addr", cfg.Addr()),
		slog.Bool("kafka", cfg.Kafka.Enabled),
		slog.Bool("tracing", cfg.Tracing.Enabled),
		slog.Bool("pprof", cfg.Pprof.Enabled),
	)
	if err := application.Run(ctx); err != nil {
		return err
	}
	log.Info("referral service stopped")
	return nil
}
