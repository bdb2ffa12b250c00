package oddscache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Line is a remembered book line for one prop.
type Line struct {
	Value  float64   `json:"value"`
	Odds   int       `json:"odds,omitempty"`
	SeenAt time.Time `json:"seen_at"`
}

// Cache remembers lines by composite key. Implementations are safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (Line, bool, error)
	Set(ctx context.Context, key string, line Line) error
}

// Key builds the composite cache key for a prop.
func Key(player, stat, book string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("%s|%s|%s", norm(player), norm(stat), norm(book))
}

type entry struct {
	line    Line
	expires time.Time
}

// MemoryCache is a bounded in-process TTL map. When full, the entry closest
// to expiry is evicted.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries for ttl each.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the live entry for key.
func (c *MemoryCache) Get(_ context.Context, key string) (Line, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Line{}, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return Line{}, false, nil
	}
	return e.line, true, nil
}

// Set stores line under key, evicting if the cache is full.
func (c *MemoryCache) Set(_ context.Context, key string, line Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.pruneLocked(now)
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = entry{line: line, expires: now.Add(c.ttl)}
	return nil
}

// Prune drops expired entries and returns how many were removed.
func (c *MemoryCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(c.now())
}

// Len is the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) pruneLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = key, e.expires
		}
	}
	delete(c.entries, oldestKey)
}
