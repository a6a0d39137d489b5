// Package memory classifies heap usage against a configured ceiling and
// notifies subscribers when the pressure level changes. The cache registry
// subscribes to drive proactive eviction.
package memory

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/standardbeagle/findql/internal/debug"
	"github.com/standardbeagle/findql/internal/types"
)

// Pressure thresholds as fractions of the configured ceiling.
const (
	mediumFraction = 0.70
	highFraction   = 0.90
)

// DefaultCheckInterval is how often the background sampler runs.
const DefaultCheckInterval = 5 * time.Second

// Monitor samples heap usage. Constructed by the composition root and
// passed to whoever needs pressure signals; there is no package-level
// instance.
type Monitor struct {
	maxBytes int64
	readMem  func() uint64 // swappable for tests

	mu          sync.Mutex
	last        types.PressureLevel
	subscribers []func(types.PressureLevel)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor with a ceiling in megabytes.
func NewMonitor(maxMemoryMB int) *Monitor {
	if maxMemoryMB <= 0 {
		maxMemoryMB = types.DefaultMaxMemoryMB
	}
	return &Monitor{
		maxBytes: int64(maxMemoryMB) * 1024 * 1024,
		readMem: func() uint64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return stats.HeapAlloc
		},
		last: types.PressureLow,
	}
}

// Subscribe registers a callback invoked whenever the pressure level
// changes. Callbacks run on the sampler goroutine and must return quickly.
func (m *Monitor) Subscribe(fn func(types.PressureLevel)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Sample reads current usage and returns its classification, notifying
// subscribers on a level change.
func (m *Monitor) Sample() types.PressureLevel {
	used := int64(m.readMem())
	level := m.classify(used)

	m.mu.Lock()
	changed := level != m.last
	m.last = level
	subs := m.subscribers
	m.mu.Unlock()

	if changed {
		debug.LogCache("memory pressure changed to %s (%d MB in use)\n", level, used/(1024*1024))
		for _, fn := range subs {
			fn(level)
		}
	}
	return level
}

func (m *Monitor) classify(used int64) types.PressureLevel {
	switch {
	case used >= int64(float64(m.maxBytes)*highFraction):
		return types.PressureHigh
	case used >= int64(float64(m.maxBytes)*mediumFraction):
		return types.PressureMedium
	default:
		return types.PressureLow
	}
}

// Start launches the background sampler. Stop must be called to release it.
func (m *Monitor) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sample()
			}
		}
	}()
}

// Stop halts the background sampler and waits for it to exit. Safe to call
// when Start was never invoked.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}
