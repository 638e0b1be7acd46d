package configstore

import (
	"sync"
	"time"

	"github.com/kbukum/coordkit/clock"
)

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type cacheEntry struct {
	value      map[string]any
	storedAt   time.Time
	lastAccess time.Time
}

// lruCache is a bounded TTL cache for loaded configuration documents.
// Expiry is checked lazily on get; capacity is enforced on put by
// evicting the least recently used entry.
type lruCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
	clock      clock.Clock

	hits      uint64
	misses    uint64
	evictions uint64
}

func newLRUCache(ttl time.Duration, maxEntries int, clk clock.Clock) *lruCache {
	return &lruCache{
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clk,
	}
}

func (c *lruCache) get(key string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	now := c.clock.Now()
	if c.ttl > 0 && now.Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}
	e.lastAccess = now
	c.hits++
	return e.value, true
}

func (c *lruCache) put(key string, value map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.entries[key] = &cacheEntry{value: value, storedAt: now, lastAccess: now}
}

func (c *lruCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *lruCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// evictLRU removes the least recently accessed entry. Caller holds the lock.
func (c *lruCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}
