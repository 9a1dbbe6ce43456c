package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/davoseaworthui/referral-builder-next/pkg/logger"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/client"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/config"
	"github.com/davoseaworthui/referral-builder-next/services/builder/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "builder:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closer, err := logger.NewFile("referral-builder", cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = closer.Close() }()
	slog.SetDefault(log)
	log.Info("starting referral builder",
		slog.String("environment", cfg.Environment),
		slog.String("api_url", cfg.APIURL),
	)

	api := client.New(cfg.APIURL, cfg.HTTPTimeout, log)
	p := tea.NewProgram(ui.New(api, cfg.HTTPTimeout, log), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	log.Info("referral builder stopped")
	return nil
}
