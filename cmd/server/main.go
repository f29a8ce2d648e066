package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pricewatch/internal/alert"
	"pricewatch/internal/api"
	"pricewatch/internal/app"
	"pricewatch/internal/config"
	"pricewatch/internal/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to config.yaml (optional)")
	flag.Parse()

	// Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	quotes, err := app.NewQuotes(cfg, m, logger)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithUpstreams(quotes.AlphaVantage, quotes.CoinGecko),
		api.WithSearch(quotes.AlphaVantage, quotes.CoinGecko),
		api.WithLogger(logger),
	}
	alerts, err := app.NewAlerts(ctx, cfg, quotes.Service, m, logger)
	if err != nil {
		return err
	}
	if alerts != nil {
		defer alerts.Close()
		opts = append(opts,
			api.WithDatabase(alerts.Store),
			api.WithSweeper(alerts.Sweeper, cfg.Sweep.CronSecret),
		)
		if cfg.Sweep.CronSecret == "" {
			logger.Warn("CRON_SECRET not set; POST /api/alerts/check will reject every request")
		}
		if cfg.Sweep.IntervalSec > 0 {
			go sweepEvery(ctx, alerts.Sweeper, time.Duration(cfg.Sweep.IntervalSec)*time.Second, logger)
		}
	} else {
		logger.Info("DATABASE_URL not set; alert sweep disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(api.New(quotes.Service, opts...), api.RouterConfig{
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
		TrustedProxies: cfg.Server.TrustedProxies,
		Logger:         logger,
		Metrics:        m,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.RequestTimeoutSec+10) * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepEvery runs the alert sweep on a ticker until ctx is done. A
// failed run is logged by the sweeper and retried on the next tick.
func sweepEvery(ctx context.Context, s *alert.Sweeper, every time.Duration, logger *slog.Logger) {
	logger.Info("in-process alert sweep enabled", "interval", every.String())
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunSweep(ctx)
		}
	}
}
