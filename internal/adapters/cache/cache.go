// Package cache holds aggregated ranking data for a bounded time.
//
// Entries are visible only while now < expiresAt and are evicted lazily on
// read. Every call takes the same mutex, so one TTL can be shared by
// concurrent collectors and HTTP handlers.
package cache

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/okian/siegeboard/pkg/metrics"
)

const (
	// DefaultTTL applies when Set is called without a ttl.
	DefaultTTL = 30 * time.Minute

	// SharedDataKey stores the collector output used by every ranking.
	SharedDataKey = "castle_siege_shared_data"

	allYearsSuffix = "all"
)

// Key builds the per-ranking cache key: "<name>_<year>" or "<name>_all"
// when year is 0.
func Key(name string, year int) string {
	if year == 0 {
		return name + "_" + allYearsSuffix
	}
	return name + "_" + strconv.Itoa(year)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Info describes a live entry.
type Info struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TTL is a mutex-guarded map of expiring entries.
type TTL struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a TTL.
type Option func(*TTL)

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *TTL) {
		if d > 0 {
			c.defaultTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *TTL) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *TTL {
	c := &TTL{
		entries:    make(map[string]entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultTTL returns the ttl used when Set gets none.
func (c *TTL) DefaultTTL() time.Duration { return c.defaultTTL }

// Set stores value under key, replacing any previous entry. An optional ttl
// overrides the default; a non-positive ttl stores an already expired entry.
func (c *TTL) Set(key string, value any, ttl ...time.Duration) {
	d := c.defaultTTL
	if len(ttl) > 0 {
		d = ttl[0]
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(d)}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(n)
}

// Get returns the live value for key.
func (c *TTL) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false
	}
	metrics.RecordCacheHit()
	return e.value, true
}

// Has reports whether key holds a live value.
func (c *TTL) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.live(key)
	return ok
}

// Delete removes key. Missing keys are ignored.
func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(n)
}

// Clear removes every entry.
func (c *TTL) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(0)
}

// Len counts stored entries, including expired ones not yet evicted.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot evicts expired entries and lists the rest ordered by key.
func (c *TTL) Snapshot() []Info {
	c.mu.Lock()
	now := c.now()
	out := make([]Info, 0, len(c.entries))
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			metrics.RecordCacheEviction()
			continue
		}
		out = append(out, Info{Key: k, ExpiresAt: e.expiresAt})
	}
	n := len(c.entries)
	c.mu.Unlock()

	metrics.UpdateCacheEntries(n)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// live must be called with mu held.
func (c *TTL) live(key string) (entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		metrics.RecordCacheEviction()
		return entry{}, false
	}
	return e, true
}
