// Package metrics tracks counters for one search run. Counters are atomic
// so the runner's workers can record without coordination.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// RunStats accumulates per-file outcomes during a search.
type RunStats struct {
	filesScanned atomic.Int64
	filesMatched atomic.Int64
	filesFailed  atomic.Int64
	bytesRead    atomic.Int64
	start        time.Time
}

// NewRunStats starts the run clock.
func NewRunStats() *RunStats {
	return &RunStats{start: time.Now()}
}

func (s *RunStats) RecordMatch(bytes int64) {
	s.filesScanned.Add(1)
	s.filesMatched.Add(1)
	s.bytesRead.Add(bytes)
}

func (s *RunStats) RecordMiss(bytes int64) {
	s.filesScanned.Add(1)
	s.bytesRead.Add(bytes)
}

func (s *RunStats) RecordError() {
	s.filesScanned.Add(1)
	s.filesFailed.Add(1)
}

// Snapshot is a point-in-time copy safe to read without synchronization.
type Snapshot struct {
	FilesScanned int64
	FilesMatched int64
	FilesFailed  int64
	BytesRead    int64
	Elapsed      time.Duration
}

func (s *RunStats) Snapshot() Snapshot {
	return Snapshot{
		FilesScanned: s.filesScanned.Load(),
		FilesMatched: s.filesMatched.Load(),
		FilesFailed:  s.filesFailed.Load(),
		BytesRead:    s.bytesRead.Load(),
		Elapsed:      time.Since(s.start),
	}
}

// Summary formats the snapshot as a human-readable report.
func (s Snapshot) Summary() string {
	var sb strings.Builder
	sb.WriteString("search summary\n")
	sb.WriteString(fmt.Sprintf("  files scanned:  %d\n", s.FilesScanned))
	sb.WriteString(fmt.Sprintf("  files matched:  %d\n", s.FilesMatched))
	if s.FilesFailed > 0 {
		sb.WriteString(fmt.Sprintf("  files failed:   %d\n", s.FilesFailed))
	}
	sb.WriteString(fmt.Sprintf("  bytes read:     %.2f MB\n", float64(s.BytesRead)/1024.0/1024.0))
	sb.WriteString(fmt.Sprintf("  elapsed:        %s\n", s.Elapsed.Round(time.Millisecond)))
	return sb.String()
}
