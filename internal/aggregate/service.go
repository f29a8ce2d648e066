// Package aggregate serves batches of quotes: it validates the request,
// charges the caller's rate limit, answers what it can from the cache and
// fetches the rest concurrently.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"pricewatch/internal/metrics"
	"pricewatch/internal/provider"
	"pricewatch/internal/provider/cache"
	"pricewatch/internal/ratelimit"
)

const (
	// MaxSymbols is the largest batch accepted by GetQuotes, counted
	// after normalisation and de-duplication.
	MaxSymbols = 10

	DefaultFetchTimeout = 8 * time.Second
)

var ErrRateLimited = errors.New("rate limit exceeded")

// ValidationError reports a malformed request. It is never cached.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// RateLimitError is returned when the caller's window is exhausted.
// errors.Is(err, ErrRateLimited) holds for it.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Limiter admits or rejects one request for a client key.
type Limiter interface {
	Allow(clientKey string) ratelimit.Result
}

// Service is safe for concurrent use.
type Service struct {
	fetchers     map[provider.AssetClass]provider.Fetcher
	cache        *cache.Cache
	limiter      Limiter
	metrics      *metrics.Metrics
	logger       *slog.Logger
	fetchTimeout time.Duration

	group singleflight.Group
}

type Option func(*Service)

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New builds a Service. A nil limiter admits every request. Only the
// last fetcher registered for a class is used.
func New(c *cache.Cache, limiter Limiter, fetchers []provider.Fetcher, opts ...Option) *Service {
	s := &Service{
		fetchers:     make(map[provider.AssetClass]provider.Fetcher, len(fetchers)),
		cache:        c,
		limiter:      limiter,
		logger:       slog.Default(),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, f := range fetchers {
		s.fetchers[f.Class()] = f
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetQuotes returns one quote per requested symbol, keyed by the symbol
// as the caller spelled it (trimmed). Upstream failures come back as
// error quotes; only validation and rate limiting fail the call.
func (s *Service) GetQuotes(ctx context.Context, symbols []string, class provider.AssetClass, clientKey string) (map[string]provider.Quote, error) {
	fetcher, ok := s.fetchers[class]
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unsupported asset class %q", class)}
	}

	var (
		spellings = make(map[string][]string, len(symbols))
		keys      = make([]string, 0, len(symbols))
	)
	for _, raw := range symbols {
		raw = strings.TrimSpace(raw)
		key := provider.NormalizeSymbol(raw)
		if key == "" {
			continue
		}
		if _, seen := spellings[key]; !seen {
			keys = append(keys, key)
		}
		spellings[key] = append(spellings[key], raw)
	}
	if len(keys) == 0 {
		return nil, &ValidationError{Reason: "no symbols provided"}
	}
	if len(keys) > MaxSymbols {
		return nil, &ValidationError{Reason: fmt.Sprintf("too many symbols: %d (max %d)", len(keys), MaxSymbols)}
	}

	if s.limiter != nil {
		if res := s.limiter.Allow(clientKey); !res.Allowed {
			s.metrics.RecordRateLimited()
			return nil, &RateLimitError{RetryAfter: res.ResetAfter}
		}
	}

	resolved := make(map[string]provider.Quote, len(keys))
	missing := make([]string, 0, len(keys))
	for _, key := range keys {
		q, hit := s.cache.Get(class, key)
		s.metrics.RecordCacheLookup(string(class), hit)
		if hit {
			resolved[key] = q
			continue
		}
		missing = append(missing, key)
	}

	if bf, ok := fetcher.(provider.BatchFetcher); ok && len(missing) > 0 {
		maps.Copy(resolved, s.fetchBatch(ctx, bf, class, missing))
	} else if len(missing) > 0 {
		var mu sync.Mutex
		g := new(errgroup.Group)
		g.SetLimit(len(missing))
		for _, key := range missing {
			g.Go(func() error {
				q := s.fetch(ctx, fetcher, class, key)
				mu.Lock()
				resolved[key] = q
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make(map[string]provider.Quote, len(symbols))
	for key, raws := range spellings {
		for _, raw := range raws {
			out[raw] = resolved[key]
		}
	}
	return out, nil
}

// fetch resolves one cache miss. Concurrent misses on the same key share
// a single upstream call, whose result is written to the cache before it
// is handed out. The shared call is detached from any one caller's
// cancellation and bounded by fetchTimeout instead.
func (s *Service) fetch(ctx context.Context, f provider.Fetcher, class provider.AssetClass, symbol string) provider.Quote {
	ch := s.group.DoChan(string(class)+"|"+symbol, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		start := time.Now()
		done := make(chan provider.Quote, 1)
		go func() { done <- f.FetchQuote(fctx, symbol) }()

		var q provider.Quote
		select {
		case q = <-done:
		case <-fctx.Done():
			q = provider.ErrorQuote(class, symbol, f.Name(), fmt.Errorf("fetch timed out after %s", s.fetchTimeout))
		}

		s.metrics.RecordUpstreamFetch(f.Name(), q.OK(), time.Since(start))
		if !q.OK() {
			s.logger.WarnContext(ctx, "quote fetch failed",
				"provider", f.Name(), "class", class, "symbol", symbol, "error", q.Error)
		}
		s.cache.Put(class, symbol, q)
		return q, nil
	})

	select {
	case res := <-ch:
		return res.Val.(provider.Quote)
	case <-ctx.Done():
		return provider.ErrorQuote(class, symbol, f.Name(), ctx.Err())
	}
}

// fetchBatch resolves every miss with one upstream call. Callers missing
// the same symbol set share it; the call is detached and bounded the same
// way as fetch.
func (s *Service) fetchBatch(ctx context.Context, f provider.BatchFetcher, class provider.AssetClass, symbols []string) map[string]provider.Quote {
	symbols = slices.Sorted(slices.Values(symbols))
	ch := s.group.DoChan(string(class)+"|"+strings.Join(symbols, ","), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		start := time.Now()
		done := make(chan map[string]provider.Quote, 1)
		go func() { done <- f.FetchQuotes(fctx, symbols) }()

		var (
			got     map[string]provider.Quote
			missErr = fmt.Errorf("fetch timed out after %s", s.fetchTimeout)
		)
		select {
		case got = <-done:
			missErr = errors.New("no quote returned")
		case <-fctx.Done():
		}

		out := make(map[string]provider.Quote, len(symbols))
		anyOK := false
		for _, symbol := range symbols {
			q, ok := got[symbol]
			if !ok {
				q = provider.ErrorQuote(class, symbol, f.Name(), missErr)
			}
			if q.OK() {
				anyOK = true
			} else {
				s.logger.WarnContext(ctx, "quote fetch failed",
					"provider", f.Name(), "class", class, "symbol", symbol, "error", q.Error)
			}
			s.cache.Put(class, symbol, q)
			out[symbol] = q
		}
		s.metrics.RecordUpstreamFetch(f.Name(), anyOK, time.Since(start))
		return out, nil
	})

	select {
	case res := <-ch:
		return res.Val.(map[string]provider.Quote)
	case <-ctx.Done():
		out := make(map[string]provider.Quote, len(symbols))
		for _, symbol := range symbols {
			out[symbol] = provider.ErrorQuote(class, symbol, f.Name(), ctx.Err())
		}
		return out
	}
}
