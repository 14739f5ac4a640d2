package quotecache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"btcquote/internal/provider"
)

// StaleWarning is attached to results served from an expired cache entry
// after an upstream failure.
const StaleWarning = "Using stale cached price due to upstream error."

// Result is a quote plus the cache metadata callers render alongside it.
type Result struct {
	Quote    provider.Quote
	Stale    bool
	CacheAge time.Duration
	Warning  string
}

// Coordinator owns the single cached quote slot and decides, per call,
// whether to serve it, refresh it, or degrade to stale data. A quote
// whose age is within TTL (boundary included) is served without an
// upstream call; an expired or missing quote triggers one coalesced
// fetch; a failed fetch falls back to whatever is cached, at any age.
type Coordinator struct {
	fetcher provider.Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	quote     provider.Quote
	hasQuote  bool
	fetchedAt time.Time

	// sf coalesces concurrent refreshes so at most one upstream fetch
	// is in flight; latecomers reuse its result once it lands.
	sf singleflight.Group
}

// Option is a configuration option for the Coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New creates a Coordinator around fetcher with the given TTL.
func New(fetcher provider.Fetcher, ttl time.Duration, options ...Option) *Coordinator {
	var coordinator = &Coordinator{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, option := range options {
		option(coordinator)
	}
	return coordinator
}

// GetQuote is the single entry point for obtaining a quote. It returns
// an error only when the upstream fetch fails and no quote has ever
// been cached.
func (c *Coordinator) GetQuote(ctx context.Context) (Result, error) {
	if r, ok := c.cached(false); ok {
		return r, nil
	}

	v, err, _ := c.sf.Do("btc-usd", func() (any, error) {
		// Re-check under the flight: a previous caller may have
		// refreshed the slot while we waited to enter.
		if r, ok := c.cached(false); ok {
			return r, nil
		}

		quote, err := c.fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.quote = quote
		c.hasQuote = true
		c.fetchedAt = c.now()
		c.mu.Unlock()

		return Result{Quote: quote}, nil
	})
	if err != nil {
		// Prefer stale data over a hard failure, regardless of age.
		if r, ok := c.cached(true); ok {
			r.Stale = true
			r.Warning = StaleWarning
			return r, nil
		}
		return Result{}, err
	}
	return v.(Result), nil
}

// cached derives a read-only view of the slot without mutating it.
// With allowStale false only entries within TTL qualify; the TTL
// boundary itself still counts as fresh.
func (c *Coordinator) cached(allowStale bool) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.hasQuote {
		return Result{}, false
	}
	age := c.now().Sub(c.fetchedAt)
	if age > c.ttl && !allowStale {
		return Result{}, false
	}
	return Result{Quote: c.quote, Stale: age > c.ttl, CacheAge: age}, true
}
