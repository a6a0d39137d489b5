package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/findql/internal/types"
)

func TestCacheRoundTrip(t *testing.T) {
	c := New[string, int](Options{MaxSize: 10}, nil)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// Overwrite keeps a single entry
	c.Set("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheCapacityInvariant(t *testing.T) {
	c := New[int, string](Options{MaxSize: 5}, nil)

	for i := 0; i < 100; i++ {
		c.Set(i, "value")
		assert.LessOrEqual(t, c.Len(), 5, "size must never exceed maxSize")
	}
}

func TestCacheLRUEvictionOrder(t *testing.T) {
	c := New[string, int](Options{MaxSize: 3}, nil)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes the least recently used
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "least-recently-used entry should be evicted first")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestCacheTTLExpiryOnRead(t *testing.T) {
	c := New[string, int](Options{MaxSize: 10, TTL: time.Minute}, nil)

	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("a", 1)

	// Within TTL
	now = now.Add(30 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	// Past TTL: miss, and the entry is removed
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheTrimToSize(t *testing.T) {
	c := New[int, int](Options{MaxSize: 100}, nil)
	for i := 0; i < 10; i++ {
		c.Set(i, i)
	}

	removed := c.TrimToSize(3)
	assert.Equal(t, 7, removed)
	assert.Equal(t, 3, c.Len())

	// The three most recently inserted survive
	for i := 7; i < 10; i++ {
		_, ok := c.Get(i)
		assert.True(t, ok, "entry %d should survive trim", i)
	}

	assert.Equal(t, 0, c.TrimToSize(10), "trim above current size is a no-op")
	assert.Equal(t, 3, c.TrimToSize(-1), "negative target empties the cache")
}

func TestCacheMemoryCeilingProactiveTrim(t *testing.T) {
	sizeOf := func(_ string, v []byte) int64 { return int64(len(v)) }
	c := New[string, []byte](Options{MaxSize: 100, MaxMemoryBytes: 100}, sizeOf)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), make([]byte, 30))
	}

	assert.LessOrEqual(t, c.EstimatedMemoryUsage(), int64(100),
		"size estimate must be trimmed back under the ceiling on Set")
	assert.Less(t, c.Len(), 10)
}

func TestCacheClearAndDelete(t *testing.T) {
	c := New[string, int](Options{MaxSize: 10}, nil)
	c.Set("a", 1)
	c.Set("b", 2)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.EstimatedMemoryUsage())
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](Options{MaxSize: 2}, nil)
	c.Set("a", 1)

	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)

	c.Set("b", 2)
	c.Set("c", 3)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	c1 := GetOrCreate[string, int](r, "stats", Options{MaxSize: 10}, TrimLight, nil)
	c2 := GetOrCreate[string, int](r, "stats", Options{MaxSize: 99}, TrimLight, nil)
	assert.Same(t, c1, c2, "same name must return the same cache")

	assert.Panics(t, func() {
		GetOrCreate[string, string](r, "stats", Options{}, TrimLight, nil)
	}, "type mismatch for an existing name is a wiring bug")
}

func TestRegistryPressureTrimming(t *testing.T) {
	r := NewRegistry()

	content := GetOrCreate[int, string](r, "content", Options{MaxSize: 100}, TrimAggressive, nil)
	stats := GetOrCreate[int, string](r, "stats", Options{MaxSize: 100}, TrimLight, nil)
	for i := 0; i < 10; i++ {
		content.Set(i, "data")
		stats.Set(i, "data")
	}

	// Medium pressure leaves light caches alone
	r.HandlePressure(types.PressureMedium)
	assert.Equal(t, 6, content.Len(), "aggressive caches retain 60 percent under medium pressure")
	assert.Equal(t, 10, stats.Len())

	// High pressure trims everything, content hardest
	content.Clear()
	stats.Clear()
	for i := 0; i < 10; i++ {
		content.Set(i, "data")
		stats.Set(i, "data")
	}
	r.HandlePressure(types.PressureHigh)
	assert.Equal(t, 3, content.Len())
	assert.Equal(t, 7, stats.Len())

	// Low pressure never trims
	r.HandlePressure(types.PressureLow)
	assert.Equal(t, 3, content.Len())
	assert.Equal(t, 7, stats.Len())
}

func TestRegistryClearAllAndMemory(t *testing.T) {
	r := NewRegistry()
	sizeOf := func(_ int, v string) int64 { return int64(len(v)) }
	c := GetOrCreate[int, string](r, "content", Options{MaxSize: 10}, TrimAggressive, sizeOf)

	c.Set(1, "0123456789")
	assert.Equal(t, int64(10), r.EstimatedMemoryUsage())

	r.ClearAll()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), r.EstimatedMemoryUsage())
}
