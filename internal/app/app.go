// Package app assembles the quote pipeline and the alert sweep from
// configuration. It is shared by the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pricewatch/internal/aggregate"
	"pricewatch/internal/alert"
	"pricewatch/internal/alert/postgres"
	"pricewatch/internal/config"
	"pricewatch/internal/httpx"
	"pricewatch/internal/metrics"
	"pricewatch/internal/notify"
	"pricewatch/internal/provider"
	"pricewatch/internal/provider/alphavantage"
	"pricewatch/internal/provider/cache"
	"pricewatch/internal/provider/coingecko"
	"pricewatch/internal/provider/throttle"
	"pricewatch/internal/ratelimit"
)

// Quotes is the wired quote pipeline.
type Quotes struct {
	Service      *aggregate.Service
	AlphaVantage *alphavantage.Fetcher
	CoinGecko    *coingecko.Fetcher
	// Throttled holds the rate-limited fetcher for each asset class.
	Throttled    map[provider.AssetClass]provider.Fetcher
}

// NewQuotes builds both upstream fetchers, wraps them in their
// per-minute throttles and puts the shared cache and client limiter in
// front. m may be nil.
func NewQuotes(cfg config.Config, m *metrics.Metrics, logger *slog.Logger) (*Quotes, error) {
	httpClient := httpx.New(time.Duration(cfg.Quotes.FetchTimeoutSec) * time.Second)

	avClient, err := alphavantage.NewAPIClient(
		cfg.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(cfg.AlphaVantage.Endpoint),
		alphavantage.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("alphavantage client: %w", err)
	}
	cgClient, err := coingecko.NewAPIClient(
		cfg.CoinGecko.APIKey,
		coingecko.WithBaseURL(cfg.CoinGecko.Endpoint),
		coingecko.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("coingecko client: %w", err)
	}
	if cfg.AlphaVantage.APIKey == "" {
		logger.Warn("ALPHAVANTAGE_API_KEY not set; equity quotes will fail")
	}

	av := alphavantage.NewFetcher(avClient)
	cg := coingecko.NewFetcher(cgClient, cfg.CoinGecko.SymbolMap)
	throttled := map[provider.AssetClass]provider.Fetcher{
		provider.Equity: throttle.PerMinute(av, cfg.AlphaVantage.MaxRequestsPerMinute, cfg.AlphaVantage.Burst),
		provider.Crypto: throttle.PerMinute(cg, cfg.CoinGecko.MaxRequestsPerMinute, cfg.CoinGecko.Burst),
	}
	fetchers := []provider.Fetcher{throttled[provider.Equity], throttled[provider.Crypto]}

	quoteCache, err := cache.New(
		time.Duration(cfg.Quotes.CacheTTLSec)*time.Second,
		cfg.Quotes.CacheMaxItems,
		cache.WithErrorTTL(time.Duration(cfg.Quotes.ErrorTTLSec)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("quote cache: %w", err)
	}
	limiter, err := ratelimit.NewWindow(
		cfg.RateLimit.MaxRequests,
		time.Duration(cfg.RateLimit.WindowSec)*time.Second,
		cfg.RateLimit.MaxClients,
	)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	svc := aggregate.New(quoteCache, limiter, fetchers,
		aggregate.WithFetchTimeout(time.Duration(cfg.Quotes.FetchTimeoutSec)*time.Second),
		aggregate.WithMetrics(m),
		aggregate.WithLogger(logger),
	)
	return &Quotes{Service: svc, AlphaVantage: av, CoinGecko: cg, Throttled: throttled}, nil
}

// Alerts is the wired alert sweep. Close releases the store and mailer.
type Alerts struct {
	Store   *postgres.Store
	Sweeper *alert.Sweeper
	closers []func() error
}

func (a *Alerts) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewAlerts opens the alert store and picks a mailer: Kafka when brokers
// are configured, the log otherwise. It returns nil, nil when no
// database is configured.
func NewAlerts(ctx context.Context, cfg config.Config, quotes alert.QuoteSource, m *metrics.Metrics, logger *slog.Logger) (*Alerts, error) {
	if cfg.Database.URL == "" {
		return nil, nil
	}

	store, err := postgres.Open(ctx, cfg.Database.URL, postgres.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening alert store: %w", err)
	}
	a := &Alerts{Store: store, closers: []func() error{store.Close}}
	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrating alert store: %w", err)
		}
	}

	var mailer alert.Mailer = notify.LogMailer{Logger: logger}
	if len(cfg.Kafka.Brokers) > 0 {
		km, err := notify.NewKafkaMailer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("kafka mailer: %w", err)
		}
		a.closers = append(a.closers, km.Close)
		mailer = km
	}

	a.Sweeper = alert.NewSweeper(store, quotes, mailer,
		alert.WithBatchSize(cfg.Sweep.BatchSize),
		alert.WithMetrics(m),
		alert.WithLogger(logger),
	)
	return a, nil
}
