// Command sweep runs one alert sweep and exits. It is meant for an
// external scheduler; a sweep-level failure exits with status 1.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/internal/app"
	"pricewatch/internal/config"
)

var errNoDatabase = errors.New("DATABASE_URL is required")

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	timeout := flag.Duration("timeout", 2*time.Minute, "upper bound for the whole run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("alert sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	quotes, err := app.NewQuotes(cfg, nil, logger)
	if err != nil {
		return err
	}
	alerts, err := app.NewAlerts(ctx, cfg, quotes.Service, nil, logger)
	if err != nil {
		return err
	}
	if alerts == nil {
		return errNoDatabase
	}
	defer alerts.Close()

	res, err := alerts.Sweeper.RunSweep(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
