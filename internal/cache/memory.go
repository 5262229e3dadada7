package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCleanupInterval is how often expired entries are swept. Responses
// are small and runs are short, so sweeping is not time critical.
const memoryCleanupInterval = 10 * time.Minute

// MemoryCache holds gateway responses for the lifetime of the process. It
// makes repeated identical prompts within one run free; surviving across
// runs is the disk layer's job.
type MemoryCache struct {
	entries *gocache.Cache
}

// NewMemoryCache creates an in-process response cache. ttl bounds how long
// an entry stored with a zero TTL stays valid.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: gocache.New(ttl, memoryCleanupInterval)}
}

// Get returns the cached response for key, if still valid
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.entries.Get(key)
	if !found {
		return nil, false
	}
	return val.([]byte), true
}

// Set stores a response. A zero ttl falls back to the cache-wide default.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.entries.Set(key, value, ttl)
	return nil
}

// Delete drops one response
func (c *MemoryCache) Delete(key string) error {
	c.entries.Delete(key)
	return nil
}

// Clear drops every cached response
func (c *MemoryCache) Clear() error {
	c.entries.Flush()
	return nil
}
