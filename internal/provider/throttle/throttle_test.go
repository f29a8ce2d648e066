package throttle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricewatch/internal/provider"
)

type countingFetcher struct{ calls atomic.Int32 }

func (c *countingFetcher) Name() string                { return "stub" }
func (c *countingFetcher) Class() provider.AssetClass { return provider.Equity }
func (c *countingFetcher) FetchQuote(_ context.Context, symbol string) provider.Quote {
	c.calls.Add(1)
	return provider.Quote{Symbol: symbol, AssetClass: provider.Equity, Price: 1, Source: "stub"}
}

type countingBatchFetcher struct {
	countingFetcher
	batches atomic.Int32
}

func (c *countingBatchFetcher) FetchQuotes(ctx context.Context, symbols []string) map[string]provider.Quote {
	c.batches.Add(1)
	out := make(map[string]provider.Quote, len(symbols))
	for _, s := range symbols {
		out[s] = provider.Quote{Symbol: s, AssetClass: provider.Equity, Price: 1, Source: "stub"}
	}
	return out
}

func TestPerMinute_KeepsBatchCapability(t *testing.T) {
	t.Parallel()

	// Arrange: one call per minute, no burst beyond the first token
	next := &countingBatchFetcher{}
	f, ok := PerMinute(next, 1, 1).(provider.BatchFetcher)
	require.True(t, ok)

	// Act: the first batch spends the only token
	got := f.FetchQuotes(t.Context(), []string{"A", "B", "C"})

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	throttled := f.FetchQuotes(ctx, []string{"D", "E"})

	// Assert
	require.Len(t, got, 3)
	for _, q := range got {
		require.True(t, q.OK())
	}
	require.Len(t, throttled, 2)
	require.Contains(t, throttled["D"].Error, "upstream throttle")
	require.EqualValues(t, 1, next.batches.Load())
	require.Zero(t, next.calls.Load())
}

func TestPerMinute_PlainFetcherIsNotBatch(t *testing.T) {
	t.Parallel()

	_, ok := PerMinute(&countingFetcher{}, 1, 1).(provider.BatchFetcher)
	require.False(t, ok)
}

func TestPerMinute_Disabled(t *testing.T) {
	t.Parallel()

	next := &countingFetcher{}
	require.Same(t, provider.Fetcher(next), PerMinute(next, 0, 0))
}

func TestFetcher_BurstThenWaitHonoursContext(t *testing.T) {
	t.Parallel()

	// Arrange: one call per minute, burst of two
	next := &countingFetcher{}
	f := PerMinute(next, 1, 2)
	require.Equal(t, "stub", f.Name())
	require.Equal(t, provider.Equity, f.Class())

	// Act: the burst goes straight through
	require.True(t, f.FetchQuote(t.Context(), "A").OK())
	require.True(t, f.FetchQuote(t.Context(), "B").OK())

	// Act: the third call cannot get a token before the deadline
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	q := f.FetchQuote(ctx, "C")

	// Assert
	require.False(t, q.OK())
	require.Equal(t, "C", q.Symbol)
	require.Equal(t, provider.Equity, q.AssetClass)
	require.Contains(t, q.Error, "upstream throttle")
	require.EqualValues(t, 2, next.calls.Load())
}
