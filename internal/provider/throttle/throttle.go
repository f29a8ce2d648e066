// Package throttle gates upstream calls so a provider's own quota is not
// exhausted by cache misses.
package throttle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"pricewatch/internal/provider"
)

// Fetcher wraps a provider.Fetcher and waits on a token bucket before
// every upstream call.
type Fetcher struct {
	next    provider.Fetcher
	limiter *rate.Limiter
}

// PerMinute wraps next with a limit of rpm calls per minute and the given
// burst. rpm <= 0 returns next unchanged. When next is a
// provider.BatchFetcher so is the result, and a whole batch costs one
// token.
func PerMinute(next provider.Fetcher, rpm, burst int) provider.Fetcher {
	if rpm <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	f := &Fetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst),
	}
	if b, ok := next.(provider.BatchFetcher); ok {
		return &BatchFetcher{Fetcher: f, batch: b}
	}
	return f
}

func (f *Fetcher) Name() string                { return f.next.Name() }
func (f *Fetcher) Class() provider.AssetClass { return f.next.Class() }

// FetchQuote returns an error quote when ctx ends before a token is
// available.
func (f *Fetcher) FetchQuote(ctx context.Context, symbol string) provider.Quote {
	if err := f.limiter.Wait(ctx); err != nil {
		return provider.ErrorQuote(f.next.Class(), symbol, f.next.Name(), fmt.Errorf("upstream throttle: %w", err))
	}
	return f.next.FetchQuote(ctx, symbol)
}

// Unwrap returns the decorated fetcher.
func (f *Fetcher) Unwrap() provider.Fetcher { return f.next }

// BatchFetcher is the throttle around a provider.BatchFetcher.
type BatchFetcher struct {
	*Fetcher
	batch provider.BatchFetcher
}

func (f *BatchFetcher) FetchQuotes(ctx context.Context, symbols []string) map[string]provider.Quote {
	if err := f.limiter.Wait(ctx); err != nil {
		out := make(map[string]provider.Quote, len(symbols))
		for _, s := range symbols {
			out[s] = provider.ErrorQuote(f.batch.Class(), s, f.batch.Name(), fmt.Errorf("upstream throttle: %w", err))
		}
		return out
	}
	return f.batch.FetchQuotes(ctx, symbols)
}
