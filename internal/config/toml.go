package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors the .findql.toml layout. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type tomlFile struct {
	Search struct {
		CaseSensitive    *bool    `toml:"case_sensitive"`
		WholeWord        *bool    `toml:"whole_word"`
		StemMatching     *bool    `toml:"stem_matching"`
		Fuzzy            *bool    `toml:"fuzzy"`
		FuzzyNear        *bool    `toml:"fuzzy_near"`
		FuzzyThreshold   *float64 `toml:"fuzzy_threshold"`
		FuzzyAlgorithm   *string  `toml:"fuzzy_algorithm"`
		MaxResults       *int     `toml:"max_results"`
	} `toml:"search"`
	Stream struct {
		ChunkSizeKB      *int   `toml:"chunk_size_kb"`
		MaxFileSizeMB    *int64 `toml:"max_file_size_mb"`
		EarlyTermination *bool  `toml:"early_termination"`
		SkipBinary       *bool  `toml:"skip_binary"`
	} `toml:"stream"`
	Cache struct {
		MaxEntries  *int   `toml:"max_entries"`
		TTLMinutes  *int   `toml:"ttl_minutes"`
		MaxMemoryMB *int64 `toml:"max_memory_mb"`
	} `toml:"cache"`
	Performance struct {
		Workers          *int `toml:"workers"`
		MaxMemoryMB      *int `toml:"max_memory_mb"`
		PressureCheckSec *int `toml:"pressure_check_sec"`
		WatchDebounceMs  *int `toml:"watch_debounce_ms"`
	} `toml:"performance"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

func parseTOML(data []byte, cfg *Config) error {
	var f tomlFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}

	setBool(f.Search.CaseSensitive, &cfg.Search.CaseSensitive)
	setBool(f.Search.WholeWord, &cfg.Search.WholeWord)
	setBool(f.Search.StemMatching, &cfg.Search.StemMatching)
	setBool(f.Search.Fuzzy, &cfg.Search.FuzzyEnabled)
	setBool(f.Search.FuzzyNear, &cfg.Search.FuzzyNearEnabled)
	if f.Search.FuzzyThreshold != nil {
		cfg.Search.FuzzyThreshold = *f.Search.FuzzyThreshold
	}
	if f.Search.FuzzyAlgorithm != nil {
		cfg.Search.FuzzyAlgorithm = *f.Search.FuzzyAlgorithm
	}
	setInt(f.Search.MaxResults, &cfg.Search.MaxResults)

	setInt(f.Stream.ChunkSizeKB, &cfg.Stream.ChunkSizeKB)
	if f.Stream.MaxFileSizeMB != nil {
		cfg.Stream.MaxFileSizeMB = *f.Stream.MaxFileSizeMB
	}
	setBool(f.Stream.EarlyTermination, &cfg.Stream.EarlyTermination)
	setBool(f.Stream.SkipBinary, &cfg.Stream.SkipBinary)

	setInt(f.Cache.MaxEntries, &cfg.Cache.MaxEntries)
	setInt(f.Cache.TTLMinutes, &cfg.Cache.TTLMinutes)
	if f.Cache.MaxMemoryMB != nil {
		cfg.Cache.MaxMemoryMB = *f.Cache.MaxMemoryMB
	}

	setInt(f.Performance.Workers, &cfg.Performance.Workers)
	setInt(f.Performance.MaxMemoryMB, &cfg.Performance.MaxMemoryMB)
	setInt(f.Performance.PressureCheckSec, &cfg.Performance.PressureCheckSec)
	setInt(f.Performance.WatchDebounceMs, &cfg.Performance.WatchDebounceMs)

	if len(f.Include) > 0 {
		cfg.Include = append(cfg.Include, f.Include...)
	}
	if len(f.Exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, f.Exclude...)
	}
	return nil
}

func setBool(src *bool, dst *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(src *int, dst *int) {
	if src != nil {
		*dst = *src
	}
}
