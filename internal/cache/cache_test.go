package cache

import (
	"testing"
	"time"

	"factloop/internal/model"
)

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("openai", "gpt-4o-mini", "system", "user")
	k2 := Key("openai", "gpt-4o-mini", "system", "user")
	if k1 != k2 {
		t.Errorf("same parts must yield same key: %s vs %s", k1, k2)
	}
}

func TestKey_NoBoundaryCollisions(t *testing.T) {
	// Without length prefixes these pairs would concatenate identically
	pairs := [][2][]string{
		{{"ab", "c"}, {"a", "bc"}},
		{{"openai", ""}, {"", "openai"}},
		{{"x", "y", "z"}, {"xy", "z"}},
	}

	for _, p := range pairs {
		if Key(p[0]...) == Key(p[1]...) {
			t.Errorf("key collision between %v and %v", p[0], p[1])
		}
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour)

	if _, found := c.Get("missing"); found {
		t.Error("empty cache reported a hit")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Errorf("Get after Set: %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("openai", "gpt-4o-mini", "sys", "user")
	if err := c.Set(key, []byte("response"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// A fresh instance over the same dir sees the entry
	c2 := NewDiskCache(dir, time.Hour)
	got, found := c2.Get(key)
	if !found || string(got) != "response" {
		t.Errorf("Get from new instance: %q, %v", got, found)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("deleted key still present")
	}
}

func TestDiskCache_Expiration(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expired entry served")
	}
}

func TestLayeredCache_DiskPromotion(t *testing.T) {
	dir := t.TempDir()

	// Seed the disk layer only
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	c := NewLayeredCache(time.Hour, dir, time.Hour)
	got, found := c.Get("k")
	if !found || string(got) != "v" {
		t.Fatalf("layered Get from disk: %q, %v", got, found)
	}

	// Promoted entry is now served from memory
	if _, found := c.memory.Get("k"); !found {
		t.Error("disk hit not promoted to memory")
	}
}

func TestFromConfig(t *testing.T) {
	if c := FromConfig(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("disabled config must yield nil (no caching layer)")
	}

	mem := FromConfig(model.CacheConfig{Enabled: true, MemoryTTL: time.Hour})
	if _, ok := mem.(*MemoryCache); !ok {
		t.Errorf("expected memory cache without a dir, got %T", mem)
	}

	layered := FromConfig(model.CacheConfig{
		Enabled:   true,
		Dir:       t.TempDir(),
		MemoryTTL: time.Hour,
		DiskTTL:   24 * time.Hour,
	})
	if _, ok := layered.(*LayeredCache); !ok {
		t.Errorf("expected layered cache with a dir, got %T", layered)
	}
}

func TestLayeredCache_SetWritesBoth(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, found := c.memory.Get("k"); !found {
		t.Error("memory layer missing entry")
	}
	if _, found := c.disk.Get("k"); !found {
		t.Error("disk layer missing entry")
	}
}
