// Package ratelimit bounds how many quote requests a single client may
// make. It is an in-memory, per-instance guard; state is lost on restart
// and is not shared between replicas.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultLimit      = 30
	DefaultWindow     = 60 * time.Second
	DefaultMaxClients = 500
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
}

type counter struct {
	count       int
	windowStart time.Time
}

// Window is a fixed-window counter per client key. Once the count in the
// current window exceeds Limit further calls are rejected until the
// window rolls over. Idle clients are evicted least-recently-used first
// when MaxClients keys are tracked.
type Window struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	counters *lru.Cache[string, *counter]
}

type Option func(*Window)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

func NewWindow(limit int, window time.Duration, maxClients int, opts ...Option) (*Window, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}
	counters, err := lru.New[string, *counter](maxClients)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	w := &Window{limit: limit, window: window, now: time.Now, counters: counters}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Admit records one request for clientKey and reports whether it may
// proceed.
func (w *Window) Admit(clientKey string) bool { return w.Allow(clientKey).Allowed }

// Allow is Admit with the remaining budget and time until reset.
func (w *Window) Allow(clientKey string) Result {
	now := w.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.counters.Get(clientKey)
	if !ok || now.Sub(c.windowStart) >= w.window {
		c = &counter{count: 1, windowStart: now}
		w.counters.Add(clientKey, c)
		return Result{Allowed: true, Remaining: w.limit - 1, ResetAfter: w.window}
	}

	c.count++
	reset := c.windowStart.Add(w.window).Sub(now)
	if c.count > w.limit {
		return Result{Allowed: false, Remaining: 0, ResetAfter: reset}
	}
	return Result{Allowed: true, Remaining: w.limit - c.count, ResetAfter: reset}
}

// Tracked reports how many client keys currently hold a counter.
func (w *Window) Tracked() int { return w.counters.Len() }
