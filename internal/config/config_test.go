package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/standardbeagle/findql/internal/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	return dir
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Search.CaseSensitive)
	assert.False(t, cfg.Search.FuzzyEnabled)
	assert.Equal(t, 0.80, cfg.Search.FuzzyThreshold)
	assert.Equal(t, "jaro-winkler", cfg.Search.FuzzyAlgorithm)
	assert.Equal(t, 64, cfg.Stream.ChunkSizeKB)
	assert.Equal(t, int64(50), cfg.Stream.MaxFileSizeMB)
	assert.True(t, cfg.Stream.EarlyTermination)
	assert.Greater(t, cfg.Performance.Workers, 0, "validation fills in NumCPU")
}

func TestLoadKDL(t *testing.T) {
	dir := writeConfig(t, ".findql.kdl", `
search {
    case_sensitive false
    whole_word true
    fuzzy true
    fuzzy_threshold 0.9
    fuzzy_algorithm "levenshtein"
}
stream {
    chunk_size_kb 128
    early_termination false
}
cache {
    max_entries 50
    ttl_minutes 10
}
performance {
    workers 4
}
include "*.go" "*.md"
exclude {
    "vendor/**"
    "dist/**"
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, cfg.Search.CaseSensitive)
	assert.True(t, cfg.Search.WholeWord)
	assert.True(t, cfg.Search.FuzzyEnabled)
	assert.Equal(t, 0.9, cfg.Search.FuzzyThreshold)
	assert.Equal(t, "levenshtein", cfg.Search.FuzzyAlgorithm)
	assert.Equal(t, 128, cfg.Stream.ChunkSizeKB)
	assert.False(t, cfg.Stream.EarlyTermination)
	assert.Equal(t, 50, cfg.Cache.MaxEntries)
	assert.Equal(t, 10, cfg.Cache.TTLMinutes)
	assert.Equal(t, 4, cfg.Performance.Workers)
	assert.Equal(t, []string{"*.go", "*.md"}, cfg.Include)
	assert.Equal(t, []string{"vendor/**", "dist/**"}, cfg.Exclude)
}

func TestLoadKDLUnknownNodesIgnored(t *testing.T) {
	dir := writeConfig(t, ".findql.kdl", `
future_section {
    shiny true
}
search {
    whole_word true
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Search.WholeWord)
}

func TestLoadTOML(t *testing.T) {
	dir := writeConfig(t, ".findql.toml", `
include = ["src/**"]
exclude = ["*.min.js"]

[search]
case_sensitive = false
fuzzy = true
fuzzy_threshold = 0.85

[stream]
chunk_size_kb = 32
skip_binary = false

[performance]
workers = 2
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.False(t, cfg.Search.CaseSensitive)
	assert.True(t, cfg.Search.FuzzyEnabled)
	assert.Equal(t, 0.85, cfg.Search.FuzzyThreshold)
	assert.Equal(t, 32, cfg.Stream.ChunkSizeKB)
	assert.False(t, cfg.Stream.SkipBinary)
	assert.Equal(t, 2, cfg.Performance.Workers)
	assert.Equal(t, []string{"src/**"}, cfg.Include)
	assert.Equal(t, []string{"*.min.js"}, cfg.Exclude)
	// Fields the file does not name keep their defaults.
	assert.True(t, cfg.Stream.EarlyTermination)
	assert.Equal(t, 400, cfg.Cache.MaxEntries)
}

func TestKDLPreferredOverTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".findql.kdl"),
		[]byte("performance {\n    workers 3\n}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".findql.toml"),
		[]byte("[performance]\nworkers = 9\n"), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Performance.Workers)
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Search.FuzzyThreshold = 1.5

	err := Validate(cfg)
	require.Error(t, err)
	var cfgErr *ferrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsUnknownAlgorithm(t *testing.T) {
	cfg := Default()
	cfg.Search.FuzzyAlgorithm = "soundex"

	err := Validate(cfg)
	require.Error(t, err)
	var cfgErr *ferrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "search.fuzzy_algorithm", cfgErr.Field)
}

func TestValidateClampsZeroes(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, Validate(cfg))

	assert.Equal(t, 1000, cfg.Search.MaxResults)
	assert.Equal(t, 64, cfg.Stream.ChunkSizeKB)
	assert.Equal(t, int64(50), cfg.Stream.MaxFileSizeMB)
	assert.Equal(t, 400, cfg.Cache.MaxEntries)
	assert.Greater(t, cfg.Performance.Workers, 0)
	assert.Equal(t, 100, cfg.Performance.WatchDebounceMs)
}

func TestLoadBadKDLSyntax(t *testing.T) {
	dir := writeConfig(t, ".findql.kdl", `search { unterminated "`)
	_, err := Load(dir)
	assert.Error(t, err)
}

func TestMatchOptionsConversion(t *testing.T) {
	cfg := Default()
	cfg.Search.CaseSensitive = false
	cfg.Search.WholeWord = true
	cfg.Search.FuzzyEnabled = true
	cfg.Search.FuzzyThreshold = 0.75

	opts := cfg.MatchOptions()
	assert.False(t, opts.CaseSensitive)
	assert.True(t, opts.WholeWordMatching)
	assert.True(t, opts.FuzzyEnabled)
	assert.Equal(t, 0.75, opts.FuzzyThreshold)
}
