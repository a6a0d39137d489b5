// Package alloc provides pooled byte buffers so a batch run over thousands
// of files reuses its read buffers instead of churning the GC.
package alloc

import (
	"sync"
	"sync/atomic"
)

// BufferPool hands out byte slices in capacity tiers backed by sync.Pool.
// Requests larger than the biggest tier fall through to a direct allocation
// and are discarded on Put.
type BufferPool struct {
	tiers []*poolTier
	stats PoolStats
}

type poolTier struct {
	capacity int
	pool     sync.Pool
}

// PoolStats tracks pool effectiveness.
type PoolStats struct {
	Hits   atomic.Int64
	Misses atomic.Int64
}

// Chunk read sizes are config-driven but cluster around these capacities.
var defaultTiers = []int{
	16 * 1024,
	64 * 1024,
	256 * 1024,
	1024 * 1024,
}

// NewBufferPool builds a pool with the given tier capacities, which must be
// ascending.
func NewBufferPool(capacities []int) *BufferPool {
	bp := &BufferPool{tiers: make([]*poolTier, len(capacities))}
	for i, c := range capacities {
		bp.tiers[i] = &poolTier{
			capacity: c,
			pool: sync.Pool{
				New: func() any {
					return make([]byte, 0, c)
				},
			},
		}
	}
	return bp
}

// Buffers is the shared pool used by the streaming processor.
var Buffers = NewBufferPool(defaultTiers)

// Get returns a zero-length slice with capacity >= size.
func (bp *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	for _, tier := range bp.tiers {
		if tier.capacity >= size {
			bp.stats.Hits.Add(1)
			return tier.pool.Get().([]byte)[:0]
		}
	}
	bp.stats.Misses.Add(1)
	return make([]byte, 0, size)
}

// Put returns a slice to its tier. Slices that do not match a tier capacity
// exactly are dropped; they came from the fall-through path.
func (bp *BufferPool) Put(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	for _, tier := range bp.tiers {
		if tier.capacity == cap(buf) {
			tier.pool.Put(buf[:0])
			return
		}
	}
}

// Stats returns hit/miss counts since creation.
func (bp *BufferPool) Stats() (hits, misses int64) {
	return bp.stats.Hits.Load(), bp.stats.Misses.Load()
}
