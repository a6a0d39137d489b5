package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/standardbeagle/findql/internal/debug"
)

// Cache configuration constants
const (
	DefaultMaxEntries = 400
	DefaultTTL        = 2 * time.Hour
)

// Options configures a single cache instance.
type Options struct {
	MaxSize int           // maximum entry count; 0 uses DefaultMaxEntries
	TTL     time.Duration // entries older than this are treated as misses; 0 uses DefaultTTL

	// MaxMemoryBytes is an optional ceiling on the running size estimate.
	// When a Set pushes the estimate past it, least-recently-used entries
	// are trimmed immediately rather than waiting for a pressure signal.
	MaxMemoryBytes int64
}

// entry is the per-key record. Owned exclusively by its cache.
type entry[K comparable, V any] struct {
	key          K
	value        V
	lastAccess   time.Time
	insertedAt   time.Time
	sizeEstimate int64
}

// Cache is a bounded LRU cache with TTL expiry and memory-aware trimming.
// Reads and writes are serialized by a single mutex; the evaluation path is
// read-mostly so contention stays low even with many file workers.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	opts    Options
	items   map[K]*list.Element
	lru     *list.List // front = most recently used
	memUsed int64

	sizeOf func(K, V) int64
	now    func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// New creates a cache. sizeOf estimates the memory footprint of one entry
// in bytes; pass nil for caches where only entry count matters.
func New[K comparable, V any](opts Options, sizeOf func(K, V) int64) *Cache[K, V] {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxEntries
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if sizeOf == nil {
		sizeOf = func(K, V) int64 { return 0 }
	}
	return &Cache[K, V]{
		opts:   opts,
		items:  make(map[K]*list.Element),
		lru:    list.New(),
		sizeOf: sizeOf,
		now:    time.Now,
	}
}

// Get returns the cached value for key. An entry past its TTL is removed
// and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	if c.now().Sub(ent.insertedAt) > c.opts.TTL {
		c.removeElement(el)
		c.misses++
		return zero, false
	}

	ent.lastAccess = c.now()
	c.lru.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// Set inserts or replaces the value for key, then enforces the capacity
// and memory ceilings.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.sizeOf(key, value)
	now := c.now()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[K, V])
		c.memUsed += size - ent.sizeEstimate
		ent.value = value
		ent.sizeEstimate = size
		ent.insertedAt = now
		ent.lastAccess = now
		c.lru.MoveToFront(el)
	} else {
		el := c.lru.PushFront(&entry[K, V]{
			key:          key,
			value:        value,
			lastAccess:   now,
			insertedAt:   now,
			sizeEstimate: size,
		})
		c.items[key] = el
		c.memUsed += size
	}

	for c.lru.Len() > c.opts.MaxSize {
		c.evictOldest()
	}
	if c.opts.MaxMemoryBytes > 0 && c.memUsed > c.opts.MaxMemoryBytes {
		trimmed := 0
		for c.memUsed > c.opts.MaxMemoryBytes && c.lru.Len() > 1 {
			c.evictOldest()
			trimmed++
		}
		if trimmed > 0 {
			debug.LogCache("memory ceiling trim removed %d entries (%d bytes in use)\n", trimmed, c.memUsed)
		}
	}
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Len returns the current entry count.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear removes all entries and resets the size estimate.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.lru.Init()
	c.memUsed = 0
}

// TrimToSize evicts least-recently-used entries until at most n remain.
// Returns the number of entries removed.
func (c *Cache[K, V]) TrimToSize(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 {
		n = 0
	}
	removed := 0
	for c.lru.Len() > n {
		c.evictOldest()
		removed++
	}
	return removed
}

// EstimatedMemoryUsage returns the running byte estimate for cached values.
func (c *Cache[K, V]) EstimatedMemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memUsed
}

// Stats holds cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	HitRate   float64
	MemUsed   int64
}

// Stats returns a snapshot of cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := float64(0)
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   c.lru.Len(),
		HitRate:   rate,
		MemUsed:   c.memUsed,
	}
}

// evictOldest removes the back of the LRU list. Caller holds the lock.
func (c *Cache[K, V]) evictOldest() {
	el := c.lru.Back()
	if el == nil {
		return
	}
	c.removeElement(el)
	c.evictions++
}

// removeElement unlinks an element from both structures. Caller holds the lock.
func (c *Cache[K, V]) removeElement(el *list.Element) {
	ent := el.Value.(*entry[K, V])
	c.lru.Remove(el)
	delete(c.items, ent.key)
	c.memUsed -= ent.sizeEstimate
}
