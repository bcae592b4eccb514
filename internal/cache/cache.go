package cache

import (
	"strings"
	"sync"
	"time"
)

// Stats holds cache performance metrics.
type Stats struct {
	Hits      int64 // Number of cache hits
	Misses    int64 // Number of cache misses
	Evictions int64 // Number of removals (expiry, invalidation, sweep)
	ItemCount int64 // Number of live items
}

// entry represents a single cached value.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	ttl        time.Duration // ttl <= 0 means the entry never expires
}

// expired reports whether the entry is past its TTL at the given time.
func (e *entry[V]) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.insertedAt) >= e.ttl
}

// Cache is a mutex-guarded TTL cache. A zero or negative TTL pins the entry
// for the lifetime of the cache (until invalidated or closed).
type Cache[V any] struct {
	items map[string]*entry[V]

	mu    sync.RWMutex
	stats Stats

	// now is replaceable for tests.
	now func() time.Time

	sweepInterval time.Duration
	stopSweep     chan struct{}
	closeOnce     sync.Once
}

// New creates a cache and starts its background sweep. Callers must Close
// the cache when the owning session ends.
func New[V any](sweepInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:         make(map[string]*entry[V]),
		now:           time.Now,
		sweepInterval: sweepInterval,
		stopSweep:     make(chan struct{}),
	}

	if sweepInterval > 0 {
		go c.sweepLoop()
	}

	return c
}

// Get retrieves a value. An entry past its TTL is removed and reported as
// absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	e, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	if e.expired(c.now()) {
		delete(c.items, key)
		c.stats.Misses++
		c.stats.Evictions++
		return zero, false
	}

	c.stats.Hits++
	return e.value, true
}

// Set stores a value under key. A ttl <= 0 keeps the entry until it is
// explicitly invalidated.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &entry[V]{
		value:      value,
		insertedAt: c.now(),
		ttl:        ttl,
	}
}

// Invalidate removes a single entry immediately.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		c.stats.Evictions++
	}
}

// InvalidateByPrefix removes every entry whose key starts with prefix. Used
// to force-evict after a known mutation so a stale read cannot mask a needed
// refresh.
func (c *Cache[V]) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)

	return removed
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Evictions += int64(len(c.items))
	c.items = make(map[string]*entry[V])
}

// Contains checks for a live (unexpired) entry without counting a hit.
func (c *Cache[V]) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	return ok && !e.expired(c.now())
}

// Len returns the number of entries, including any not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns a snapshot of cache metrics.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.ItemCount = int64(len(c.items))
	return stats
}

// Sweep removes all expired entries and returns how many were removed. It is
// called periodically by the background loop and may be called directly.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
			removed++
		}
	}
	c.stats.Evictions += int64(removed)

	return removed
}

// Close stops the background sweep and clears the cache. Safe to call more
// than once.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() {
		close(c.stopSweep)
	})
	c.Clear()
}

func (c *Cache[V]) sweepLoop() {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopSweep:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
