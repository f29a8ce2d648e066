package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"pricewatch/internal/provider"
)

const (
	DefaultTTL      = 60 * time.Second
	DefaultErrorTTL = 10 * time.Second
	DefaultMaxItems = 100
)

type key struct {
	class  provider.AssetClass
	symbol string
}

// entry stores one quote with the time it was written.
type entry struct {
	quote      provider.Quote
	insertedAt time.Time
}

// Cache memoizes quotes per (asset class, symbol) for a TTL.
// It never fetches; callers decide what to do on a miss.
// Error quotes are kept for ErrorTTL so a provider outage is not
// replayed to every caller for a full TTL window.
type Cache struct {
	ttl      time.Duration
	errorTTL time.Duration
	now      func() time.Time

	// mu makes the expiry check and removal in Get atomic with Put.
	mu    sync.Mutex
	items *lru.Cache[key, entry]
}

type Option func(*Cache)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithErrorTTL sets the lifetime of error quotes. Zero or less disables
// caching of error quotes.
func WithErrorTTL(d time.Duration) Option {
	return func(c *Cache) { c.errorTTL = d }
}

func New(ttl time.Duration, maxItems int, opts ...Option) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	c := &Cache{ttl: ttl, errorTTL: DefaultErrorTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	items, err := lru.New[key, entry](maxItems)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	c.items = items
	return c, nil
}

// Get returns the quote for (class, symbol) while it is fresh.
// Expired entries are reported absent and dropped, unless a newer entry
// replaced them in the meantime.
func (c *Cache) Get(class provider.AssetClass, symbol string) (provider.Quote, bool) {
	k := key{class: class, symbol: provider.NormalizeSymbol(symbol)}
	c.mu.Lock()
	e, ok := c.items.Get(k)
	c.mu.Unlock()
	if !ok {
		return provider.Quote{}, false
	}
	if c.now().Sub(e.insertedAt) < c.lifetime(e.quote) {
		return e.quote, true
	}

	c.mu.Lock()
	if cur, ok := c.items.Peek(k); ok && cur.insertedAt.Equal(e.insertedAt) {
		c.items.Remove(k)
	}
	c.mu.Unlock()
	return provider.Quote{}, false
}

// Put stores q, replacing any previous entry. The least recently used
// entry is evicted when the cache is full.
func (c *Cache) Put(class provider.AssetClass, symbol string, q provider.Quote) {
	if !q.OK() && c.errorTTL <= 0 {
		return
	}
	k := key{class: class, symbol: provider.NormalizeSymbol(symbol)}
	e := entry{quote: q, insertedAt: c.now()}
	c.mu.Lock()
	c.items.Add(k, e)
	c.mu.Unlock()
}

// Len reports physically stored entries, expired ones included.
func (c *Cache) Len() int { return c.items.Len() }

func (c *Cache) lifetime(q provider.Quote) time.Duration {
	if q.OK() {
		return c.ttl
	}
	return c.errorTTL
}
