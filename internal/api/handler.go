// Package api is the HTTP boundary of the quote service.
package api

import (
	"context"
	"log/slog"
	"time"

	"pricewatch/internal/alert"
	"pricewatch/internal/provider"
	"pricewatch/internal/provider/alphavantage"
	"pricewatch/internal/provider/coingecko"
)

// Version is reported by the readiness endpoint.
const Version = "1.0.0"

//go:generate mockgen -package=api_test -destination=mock_api_test.go -source=handler.go QuoteService,AlertSweeper,Pinger,StockSearcher,CryptoSearcher

// QuoteService serves batches of quotes.
type QuoteService interface {
	GetQuotes(ctx context.Context, symbols []string, class provider.AssetClass, clientKey string) (map[string]provider.Quote, error)
}

// AlertSweeper runs one alert sweep.
type AlertSweeper interface {
	RunSweep(ctx context.Context) (alert.Result, error)
}

// StockSearcher looks up equity tickers.
type StockSearcher interface {
	SearchSymbols(ctx context.Context, query string) ([]alphavantage.SymbolMatch, error)
}

// CryptoSearcher looks up coins.
type CryptoSearcher interface {
	SearchCoins(ctx context.Context, query string) ([]coingecko.Coin, error)
}

// Pinger is anything readiness can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	quotes       QuoteService
	sweeper      AlertSweeper
	cronSecret   string
	database     Pinger
	alphaVantage Pinger
	coinGecko    Pinger
	stocks       StockSearcher
	cryptos      CryptoSearcher
	checkTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

type Option func(*Handler)

// WithSweeper enables POST /api/alerts/check. Requests must present
// secret; an empty secret rejects every request.
func WithSweeper(s AlertSweeper, secret string) Option {
	return func(h *Handler) {
		h.sweeper = s
		h.cronSecret = secret
	}
}

func WithDatabase(p Pinger) Option {
	return func(h *Handler) { h.database = p }
}

func WithUpstreams(alphaVantage, coinGecko Pinger) Option {
	return func(h *Handler) {
		h.alphaVantage = alphaVantage
		h.coinGecko = coinGecko
	}
}

// WithSearch enables GET /api/search/stock and /api/search/crypto.
// A nil searcher answers 503 for its class.
func WithSearch(stocks StockSearcher, cryptos CryptoSearcher) Option {
	return func(h *Handler) {
		h.stocks = stocks
		h.cryptos = cryptos
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func New(quotes QuoteService, opts ...Option) *Handler {
	h := &Handler{
		quotes:       quotes,
		checkTimeout: 3 * time.Second,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
