package types

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB per file - hard ceiling for search
	// Rationale: Covers the multi-megabyte log and data files
	// users point the tool at while preventing memory exhaustion
	// from pathological inputs. Larger files are skipped and
	// reported, never silently truncated.

	DefaultMaxContentSize = 10 * 1024 * 1024 // 10MB - ceiling for in-memory evaluation
	// Rationale: Content above this goes through the streaming
	// processor instead of whole-file evaluation.

	// Memory limits
	DefaultMaxMemoryMB = 500 // ceiling the pressure monitor classifies against

	// Streaming processor limits
	DefaultChunkSize    = 64 * 1024   // 64KB read chunks
	StreamBufferCap     = 1024 * 1024 // 1MiB accumulation cap before newline split
	MaxExtractedLines   = 10000       // cap on matched lines returned per file
	DefaultMaxLineBytes = 64 * 1024   // lines longer than this are still scanned, never split

	// Fuzzy matching thresholds
	MinFuzzyTermLength    = 3    // terms shorter than this never fuzzy-match
	DefaultFuzzyThreshold = 0.80 // similarity score needed to accept a fuzzy match

	// NEAR proximity tuning
	AvgWordLength      = 6  // estimated characters per word for the cheap pre-filter
	NearPrefilterMin   = 10 // both position sets must exceed this to enable the pre-filter
	NearCandidateLimit = 10 // closest candidates examined per anchor position
)

// MatchOptions controls how query leaves resolve against content.
// Passed by value through an entire evaluation and never mutated mid-flight.
type MatchOptions struct {
	CaseSensitive     bool
	WholeWordMatching bool
	StemMatching      bool // whole-word refinement: equal Porter2 stems count as a match
	FuzzyEnabled      bool // fuzzy fallback for ordinary leaves
	FuzzyNearEnabled  bool // fuzzy fallback for leaves inside NEAR arguments
	FuzzyThreshold    float64
	MaxContentSize    int64
}

// DefaultMatchOptions returns the options used when the caller specifies nothing.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		CaseSensitive:  true,
		FuzzyThreshold: DefaultFuzzyThreshold,
		MaxContentSize: DefaultMaxContentSize,
	}
}

// PressureLevel classifies current memory usage for cache trimming.
type PressureLevel int

const (
	PressureLow PressureLevel = iota
	PressureMedium
	PressureHigh
)

func (p PressureLevel) String() string {
	switch p {
	case PressureLow:
		return "low"
	case PressureMedium:
		return "medium"
	case PressureHigh:
		return "high"
	default:
		return "unknown"
	}
}
