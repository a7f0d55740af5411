package itvx

import (
	"encoding/json"
	"sync"
	"time"
)

// defaultCacheTTL matches how long a scraped page stays valid within a
// browsing session before it's re-fetched.
const defaultCacheTTL = 10 * time.Minute

// pageCache is an in-memory cache of scraped page data keyed by URL.
// Entries expire after a fixed TTL and are evicted lazily on access.
type pageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time // swappable for tests
}

type cacheEntry struct {
	data    json.RawMessage
	expires time.Time
}

func newPageCache(ttl time.Duration) *pageCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &pageCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *pageCache) get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.data, true
}

func (c *pageCache) put(key string, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		data:    data,
		expires: c.now().Add(c.ttl),
	}
}

func (c *pageCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
