// Package config loads and validates findql configuration. A project may
// carry a .findql.kdl (preferred, same dialect the rest of our tooling
// uses) or a .findql.toml; CLI flags override either.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/types"
)

type Config struct {
	Search      Search
	Stream      Stream
	Cache       Cache
	Performance Performance
	Include     []string
	Exclude     []string
}

type Search struct {
	CaseSensitive    bool
	WholeWord        bool
	StemMatching     bool
	FuzzyEnabled     bool
	FuzzyNearEnabled bool
	FuzzyThreshold   float64
	FuzzyAlgorithm   string // "jaro-winkler" or "levenshtein"
	MaxResults       int
}

type Stream struct {
	ChunkSizeKB      int
	MaxFileSizeMB    int64
	EarlyTermination bool
	SkipBinary       bool
}

type Cache struct {
	MaxEntries  int
	TTLMinutes  int
	MaxMemoryMB int64 // per-cache byte ceiling; 0 disables proactive trimming
}

type Performance struct {
	Workers          int // 0 = NumCPU
	MaxMemoryMB      int // pressure monitor ceiling
	PressureCheckSec int
	WatchDebounceMs  int
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Search: Search{
			CaseSensitive:  true,
			FuzzyThreshold: types.DefaultFuzzyThreshold,
			FuzzyAlgorithm: "jaro-winkler",
			MaxResults:     1000,
		},
		Stream: Stream{
			ChunkSizeKB:      types.DefaultChunkSize / 1024,
			MaxFileSizeMB:    types.DefaultMaxFileSize / (1024 * 1024),
			EarlyTermination: true,
			SkipBinary:       true,
		},
		Cache: Cache{
			MaxEntries:  400,
			TTLMinutes:  120,
			MaxMemoryMB: 100,
		},
		Performance: Performance{
			Workers:          0,
			MaxMemoryMB:      types.DefaultMaxMemoryMB,
			PressureCheckSec: 5,
			WatchDebounceMs:  100,
		},
	}
}

// Load looks for .findql.kdl then .findql.toml under root and parses
// whichever exists first; absent both, defaults apply. The result is
// always validated.
func Load(root string) (*Config, error) {
	cfg := Default()

	kdlPath := filepath.Join(root, ".findql.kdl")
	if _, err := os.Stat(kdlPath); err == nil {
		content, err := os.ReadFile(kdlPath)
		if err != nil {
			return nil, ferrors.NewFileError("read", kdlPath, err)
		}
		if err := parseKDL(string(content), cfg); err != nil {
			return nil, err
		}
		return cfg, Validate(cfg)
	}

	tomlPath := filepath.Join(root, ".findql.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		content, err := os.ReadFile(tomlPath)
		if err != nil {
			return nil, ferrors.NewFileError("read", tomlPath, err)
		}
		if err := parseTOML(content, cfg); err != nil {
			return nil, err
		}
		return cfg, Validate(cfg)
	}

	return cfg, Validate(cfg)
}

// Validate clamps out-of-range values and rejects the ones that cannot be
// corrected silently.
func Validate(cfg *Config) error {
	if cfg.Search.FuzzyThreshold < 0 || cfg.Search.FuzzyThreshold > 1 {
		return ferrors.NewConfigError("search.fuzzy_threshold", "", errNotFraction)
	}
	switch cfg.Search.FuzzyAlgorithm {
	case "", "jaro-winkler", "levenshtein":
	default:
		return ferrors.NewConfigError("search.fuzzy_algorithm", cfg.Search.FuzzyAlgorithm, errUnknownAlgorithm)
	}

	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 1000
	}
	if cfg.Stream.ChunkSizeKB <= 0 {
		cfg.Stream.ChunkSizeKB = types.DefaultChunkSize / 1024
	}
	if cfg.Stream.MaxFileSizeMB <= 0 {
		cfg.Stream.MaxFileSizeMB = types.DefaultMaxFileSize / (1024 * 1024)
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 400
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = 120
	}
	if cfg.Performance.Workers <= 0 {
		cfg.Performance.Workers = runtime.NumCPU()
	}
	if cfg.Performance.MaxMemoryMB <= 0 {
		cfg.Performance.MaxMemoryMB = types.DefaultMaxMemoryMB
	}
	if cfg.Performance.PressureCheckSec <= 0 {
		cfg.Performance.PressureCheckSec = 5
	}
	if cfg.Performance.WatchDebounceMs <= 0 {
		cfg.Performance.WatchDebounceMs = 100
	}
	return nil
}

// MatchOptions converts the search section into evaluation options.
func (c *Config) MatchOptions() types.MatchOptions {
	return types.MatchOptions{
		CaseSensitive:     c.Search.CaseSensitive,
		WholeWordMatching: c.Search.WholeWord,
		StemMatching:      c.Search.StemMatching,
		FuzzyEnabled:      c.Search.FuzzyEnabled,
		FuzzyNearEnabled:  c.Search.FuzzyNearEnabled,
		FuzzyThreshold:    c.Search.FuzzyThreshold,
		MaxContentSize:    types.DefaultMaxContentSize,
	}
}
