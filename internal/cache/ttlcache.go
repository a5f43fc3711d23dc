// Package cache implements the TTL Cache (§4.3): a per-intent TTL keyed
// cache of finance.Result envelopes, adapted from the teacher's
// datasources.CacheManager map+mutex+lazy-expiry shape.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/platform"
)

// TTLByIntent are the default per-intent cache lifetimes (§4.3).
var TTLByIntent = map[finance.Intent]time.Duration{
	finance.IntentQuote:        300 * time.Second,
	finance.IntentFundamentals: 3600 * time.Second,
	finance.IntentFilings:      43200 * time.Second,
	finance.IntentInsider:      43200 * time.Second,
	finance.IntentNews:         600 * time.Second,
}

type entry struct {
	value     finance.Result
	expiresAt time.Time
}

// Cache is the process-local TTL cache. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   platform.Clock
}

// New returns an empty Cache using clock for expiry checks. A nil clock
// defaults to platform.SystemClock{}.
func New(clock platform.Clock) *Cache {
	if clock == nil {
		clock = platform.SystemClock{}
	}
	return &Cache{entries: make(map[string]entry), clock: clock}
}

// Key builds the cache key scheme from §4.3:
// ${TICKER}:${intent}:${coverage|default}:${source|auto}:${form|""}:${limit}
func Key(q finance.NormalizedQuery) string {
	coverage := string(q.Coverage)
	if coverage == "" {
		coverage = "default"
	}
	source := q.Source
	if source == "" {
		source = "auto"
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d", q.Ticker, q.Intent, coverage, source, q.Form, q.Limit)
}

// Get returns the cached value for key if present and unexpired. An expired
// entry is lazily deleted.
func (c *Cache) Get(key string) (finance.Result, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return finance.Result{}, false
	}
	if c.clock.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return finance.Result{}, false
	}
	return e.value, true
}

// Set unconditionally stores value under key with the TTL for intent.
func (c *Cache) Set(key string, intent finance.Intent, value finance.Result) {
	ttl, ok := TTLByIntent[intent]
	if !ok {
		ttl = 300 * time.Second
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.clock.Now().Add(ttl)}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}
