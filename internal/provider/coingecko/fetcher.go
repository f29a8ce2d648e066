package coingecko

import (
	"context"
	"errors"
	"strings"
	"time"

	"pricewatch/internal/provider"
)

// Name is the source recorded on quotes from this provider.
const Name = "coingecko"

var ErrUnknownSymbol = errors.New("symbol not found")

// Fetcher adapts APIClient to provider.Fetcher for crypto. Tickers are
// mapped to CoinGecko ids through SymbolMap; unmapped tickers are sent
// lower-cased.
type Fetcher struct {
	client    *APIClient
	symbolMap map[string]string
}

func NewFetcher(client *APIClient, symbolMap map[string]string) *Fetcher {
	m := make(map[string]string, len(symbolMap))
	for sym, id := range symbolMap {
		m[provider.NormalizeSymbol(sym)] = strings.ToLower(strings.TrimSpace(id))
	}
	return &Fetcher{client: client, symbolMap: m}
}

func (f *Fetcher) Name() string                { return Name }
func (f *Fetcher) Class() provider.AssetClass { return provider.Crypto }

// ID returns the CoinGecko id used for symbol.
func (f *Fetcher) ID(symbol string) string {
	if id, ok := f.symbolMap[provider.NormalizeSymbol(symbol)]; ok {
		return id
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}

func (f *Fetcher) FetchQuote(ctx context.Context, symbol string) provider.Quote {
	return f.FetchQuotes(ctx, []string{symbol})[symbol]
}

// FetchQuotes resolves all symbols with a single upstream call. The
// result has one entry per input symbol, keyed by the input string.
func (f *Fetcher) FetchQuotes(ctx context.Context, symbols []string) map[string]provider.Quote {
	var (
		out  = make(map[string]provider.Quote, len(symbols))
		ids  = make([]string, 0, len(symbols))
		seen = make(map[string]struct{}, len(symbols))
	)
	for _, s := range symbols {
		id := f.ID(s)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	prices, err := f.client.SimplePrice(ctx, ids)
	if err != nil {
		for _, s := range symbols {
			out[s] = provider.ErrorQuote(provider.Crypto, s, Name, err)
		}
		return out
	}

	now := time.Now().UTC()
	for _, s := range symbols {
		p, ok := prices[f.ID(s)]
		if !ok || p.USD == nil || *p.USD <= 0 {
			out[s] = provider.ErrorQuote(provider.Crypto, s, Name, ErrUnknownSymbol)
			continue
		}
		q := provider.Quote{
			Symbol:        s,
			AssetClass:    provider.Crypto,
			Price:         *p.USD,
			ChangePercent: p.Change24h,
			Volume:        p.Volume24h,
			Source:        Name,
			FetchedAt:     now,
		}
		if p.Change24h != nil {
			q.ChangeAbsolute = absoluteChange(*p.USD, *p.Change24h)
		}
		if p.LastUpdatedAt > 0 {
			q.AsOf = time.Unix(p.LastUpdatedAt, 0).UTC().Format(time.RFC3339)
		}
		out[s] = q
	}
	return out
}

// Ping reports whether the upstream answers /ping.
func (f *Fetcher) Ping(ctx context.Context) error { return f.client.Ping(ctx) }

// SearchCoins lists coins matching query by name or ticker.
func (f *Fetcher) SearchCoins(ctx context.Context, query string) ([]Coin, error) {
	return f.client.Search(ctx, query)
}

// absoluteChange derives the 24h move in USD from the current price and
// the 24h percentage.
func absoluteChange(price, pct float64) *float64 {
	if pct <= -100 {
		return nil
	}
	prev := price / (1 + pct/100)
	return provider.Float(price - prev)
}
