package itvx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageCache(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := newPageCache(10 * time.Minute)
	cache.now = func() time.Time { return now }

	_, ok := cache.get("https://example.org/a")
	assert.False(t, ok)

	cache.put("https://example.org/a", json.RawMessage(`{"a":1}`))
	data, ok := cache.get("https://example.org/a")
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data))
	assert.Equal(t, 1, cache.len())

	// Entries disappear once the TTL has passed.
	now = now.Add(10*time.Minute + time.Second)
	_, ok = cache.get("https://example.org/a")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.len())
}

func TestPageCacheDefaultTTL(t *testing.T) {
	cache := newPageCache(0)
	assert.Equal(t, defaultCacheTTL, cache.ttl)
}
