package cache

import "time"

// LayeredCache fronts the persistent disk cache with the in-process memory
// cache. Hits within a run stay in memory; a rerun over an unchanged corpus
// is served from disk without touching the analysis service.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates the memory-over-disk response cache. dir is the
// on-disk cache directory.
func NewLayeredCache(memoryTTL time.Duration, dir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL),
		disk:   NewDiskCache(dir, diskTTL),
	}
}

// Get checks memory first. A disk hit is promoted so the next lookup in
// this run stays in memory.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if data, found := c.memory.Get(key); found {
		return data, true
	}

	data, found := c.disk.Get(key)
	if !found {
		return nil, false
	}
	_ = c.memory.Set(key, data, 0)
	return data, true
}

// Set writes the response through to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete drops the response from both layers
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	_ = c.disk.Delete(key)
	return nil
}

// Clear drops both layers entirely
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
