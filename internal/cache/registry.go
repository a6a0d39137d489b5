package cache

import (
	"fmt"
	"sync"

	"github.com/standardbeagle/findql/internal/debug"
	"github.com/standardbeagle/findql/internal/types"
)

// TrimProfile selects how hard a cache trims under memory pressure.
// Caches holding full file content trim harder than cheap stat caches.
type TrimProfile int

const (
	TrimAggressive TrimProfile = iota // full file content
	TrimStandard                      // word indexes, compiled regexes
	TrimLight                         // file stats and other small records
)

// retain fractions per pressure level; 1.0 means no trim.
var trimFractions = map[types.PressureLevel]map[TrimProfile]float64{
	types.PressureHigh: {
		TrimAggressive: 0.3,
		TrimStandard:   0.5,
		TrimLight:      0.7,
	},
	types.PressureMedium: {
		TrimAggressive: 0.6,
		TrimStandard:   0.8,
		TrimLight:      1.0,
	},
}

// trimmable is the subset of the cache API the registry needs, erased of
// type parameters so caches of different shapes share one registry.
type trimmable interface {
	Len() int
	Clear()
	TrimToSize(n int) int
	EstimatedMemoryUsage() int64
}

type registered struct {
	cache   trimmable
	profile TrimProfile
}

// Registry owns the named caches of one engine instance. It is constructed
// by the composition root and passed explicitly to anything that needs a
// cache; there is no package-level shared registry.
type Registry struct {
	mu     sync.Mutex
	caches map[string]registered
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caches: make(map[string]registered)}
}

// GetOrCreate returns the cache registered under name, creating it with
// opts when absent. The type parameters must match across all callers for
// the same name; a mismatch panics, which indicates a wiring bug, not a
// runtime condition.
func GetOrCreate[K comparable, V any](r *Registry, name string, opts Options, profile TrimProfile, sizeOf func(K, V) int64) *Cache[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg, ok := r.caches[name]; ok {
		c, ok := reg.cache.(*Cache[K, V])
		if !ok {
			panic(fmt.Sprintf("cache %q already registered with a different type", name))
		}
		return c
	}

	c := New(opts, sizeOf)
	r.caches[name] = registered{cache: c, profile: profile}
	return c
}

// HandlePressure applies the per-profile trim fractions for the given
// pressure level to every registered cache.
func (r *Registry) HandlePressure(level types.PressureLevel) {
	fractions, ok := trimFractions[level]
	if !ok {
		return // low pressure: nothing to do
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, reg := range r.caches {
		fraction := fractions[reg.profile]
		if fraction >= 1.0 {
			continue
		}
		target := int(float64(reg.cache.Len()) * fraction)
		removed := reg.cache.TrimToSize(target)
		if removed > 0 {
			debug.LogCache("pressure %s trimmed %d entries from %q\n", level, removed, name)
		}
	}
}

// ClearAll drops every entry from every registered cache.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.caches {
		reg.cache.Clear()
	}
}

// EstimatedMemoryUsage sums the byte estimates of all registered caches.
func (r *Registry) EstimatedMemoryUsage() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, reg := range r.caches {
		total += reg.cache.EstimatedMemoryUsage()
	}
	return total
}
