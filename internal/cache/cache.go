// Package cache provides the byte caches backing gateway response caching:
// in-memory, on-disk, and a layered combination of the two.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"factloop/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// FromConfig builds the response cache for a run: memory only, or memory
// over a persistent disk layer when a directory is configured. Returns nil
// when caching is disabled, which skips the caching layer entirely.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
	}
	return NewMemoryCache(cfg.MemoryTTL)
}

// Key generates a cache key from the given input parts. Parts are
// length-prefix separated inside the hash, so ("ab","c") and ("a","bc")
// never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var lenBuf [8]byte
		n := len(p)
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		h.Write(lenBuf[:])
		h.Write([]byte(p))
	}
	return "factloop:v1:" + hex.EncodeToString(h.Sum(nil))
}
