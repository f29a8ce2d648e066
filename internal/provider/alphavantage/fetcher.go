package alphavantage

import (
	"context"
	"errors"
	"math"
	"time"

	"pricewatch/internal/provider"
)

// Name is the source recorded on quotes from this provider.
const Name = "alphavantage"

var ErrMissingPrice = errors.New("missing or non-positive price")

// Fetcher adapts APIClient to provider.Fetcher for equities.
type Fetcher struct {
	client *APIClient
}

func NewFetcher(client *APIClient) *Fetcher { return &Fetcher{client: client} }

func (f *Fetcher) Name() string                { return Name }
func (f *Fetcher) Class() provider.AssetClass { return provider.Equity }

// FetchQuote never returns a Go error; failures become error quotes.
func (f *Fetcher) FetchQuote(ctx context.Context, symbol string) provider.Quote {
	gq, err := f.client.GetGlobalQuote(ctx, symbol)
	if err != nil {
		return provider.ErrorQuote(provider.Equity, symbol, Name, err)
	}
	if gq.Price == nil || *gq.Price <= 0 || math.IsNaN(*gq.Price) || math.IsInf(*gq.Price, 0) {
		return provider.ErrorQuote(provider.Equity, symbol, Name, ErrMissingPrice)
	}
	if gq.Volume != nil && *gq.Volume < 0 {
		gq.Volume = nil
	}
	return provider.Quote{
		Symbol:         symbol,
		AssetClass:     provider.Equity,
		Price:          *gq.Price,
		ChangeAbsolute: gq.Change,
		ChangePercent:  gq.ChangePercent,
		Volume:         gq.Volume,
		AsOf:           gq.LatestTradingDay,
		Source:         Name,
		FetchedAt:      time.Now().UTC(),
	}
}

// Ping reports whether the upstream host is reachable.
func (f *Fetcher) Ping(ctx context.Context) error { return f.client.Ping(ctx) }

// SearchSymbols lists tickers matching query.
func (f *Fetcher) SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error) {
	return f.client.SymbolSearch(ctx, query)
}
