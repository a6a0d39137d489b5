// Package runner executes a parsed query across a set of files. Small files
// are read whole and served from a content cache; large files go through the
// chunked stream processor so memory stays bounded regardless of file size.
package runner

import (
	"context"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/findql/internal/cache"
	"github.com/standardbeagle/findql/internal/config"
	"github.com/standardbeagle/findql/internal/debug"
	ferrors "github.com/standardbeagle/findql/internal/errors"
	"github.com/standardbeagle/findql/internal/fuzzy"
	"github.com/standardbeagle/findql/internal/memory"
	"github.com/standardbeagle/findql/internal/metrics"
	"github.com/standardbeagle/findql/internal/query"
	"github.com/standardbeagle/findql/internal/stream"
	"github.com/standardbeagle/findql/internal/types"
)

// Files at or below this size are read whole; beyond it we stream.
const smallFileLimit = types.StreamBufferCap

type cachedFile struct {
	modTime int64
	size    int64
	content string
}

// FileMatch is the per-file outcome of a search.
type FileMatch struct {
	Path      string
	Matched   bool
	Lines     []stream.MatchedLine
	Truncated bool
	Err       error
}

// Runner owns the evaluator, caches and memory monitor for a search session.
type Runner struct {
	cfg       *config.Config
	registry  *cache.Registry
	evaluator *query.Evaluator
	monitor   *memory.Monitor
	content   *cache.Cache[string, cachedFile]
	stats     *metrics.RunStats
}

// New builds a runner from configuration. The memory monitor starts
// sampling immediately; call Close when done.
func New(cfg *config.Config) (*Runner, error) {
	fz, err := fuzzy.NewEngine(cfg.Search.FuzzyThreshold, cfg.Search.FuzzyAlgorithm)
	if err != nil {
		return nil, err
	}

	reg := cache.NewRegistry()
	ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
	wordOpts := cache.Options{
		MaxSize:        cfg.Cache.MaxEntries,
		TTL:            ttl,
		MaxMemoryBytes: cfg.Cache.MaxMemoryMB * 1024 * 1024,
	}

	content := cache.GetOrCreate(reg, "content", cache.Options{
		MaxSize:        cfg.Cache.MaxEntries,
		TTL:            ttl,
		MaxMemoryBytes: cfg.Cache.MaxMemoryMB * 1024 * 1024,
	}, cache.TrimAggressive, func(path string, f cachedFile) int64 {
		return int64(len(path) + len(f.content))
	})

	mon := memory.NewMonitor(cfg.Performance.MaxMemoryMB)
	mon.Subscribe(reg.HandlePressure)
	mon.Start(time.Duration(cfg.Performance.PressureCheckSec) * time.Second)

	return &Runner{
		cfg:       cfg,
		registry:  reg,
		evaluator: query.NewEvaluator(fz, reg, wordOpts),
		monitor:   mon,
		content:   content,
		stats:     metrics.NewRunStats(),
	}, nil
}

// Stats reports the accumulated counters for this runner's lifetime.
func (r *Runner) Stats() metrics.Snapshot {
	return r.stats.Snapshot()
}

// Registry exposes the cache registry, mainly for stats reporting.
func (r *Runner) Registry() *cache.Registry { return r.registry }

// Close stops the memory monitor.
func (r *Runner) Close() {
	r.monitor.Stop()
}

// Invalidate drops any cached content for path. Used by the watcher when a
// file changes on disk.
func (r *Runner) Invalidate(path string) {
	r.content.Delete(path)
}

// Search evaluates expr against every path, bounded by the configured worker
// count. Results come back in input order; per-file failures land in the
// FileMatch rather than aborting the batch.
func (r *Runner) Search(ctx context.Context, expr query.Expr, paths []string) ([]FileMatch, error) {
	opts := r.cfg.MatchOptions()
	results := make([]FileMatch, len(paths))

	workers := r.cfg.Performance.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = r.searchFile(path, expr, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	if len(errs) > 0 {
		return results, ferrors.NewMultiError(errs)
	}
	return results, nil
}

func (r *Runner) searchFile(path string, expr query.Expr, opts types.MatchOptions) FileMatch {
	res := FileMatch{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		r.stats.RecordError()
		res.Err = ferrors.NewFileError("stat", path, err)
		return res
	}

	maxBytes := r.cfg.Stream.MaxFileSizeMB * 1024 * 1024
	if info.Size() > maxBytes {
		r.stats.RecordError()
		res.Err = ferrors.NewContentTooLargeError(path, info.Size(), maxBytes)
		return res
	}

	if info.Size() <= smallFileLimit {
		res = r.searchSmall(path, info, expr, opts)
	} else {
		res = r.searchStreaming(path, expr, opts)
	}

	switch {
	case res.Err != nil:
		r.stats.RecordError()
	case res.Matched:
		r.stats.RecordMatch(info.Size())
	default:
		r.stats.RecordMiss(info.Size())
	}
	return res
}

func (r *Runner) searchSmall(path string, info os.FileInfo, expr query.Expr, opts types.MatchOptions) FileMatch {
	res := FileMatch{Path: path}

	content, err := r.readCached(path, info)
	if err != nil {
		res.Err = err
		return res
	}

	matched, err := r.evaluator.Evaluate(expr, content, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Matched = matched
	if matched {
		r.extractLines(&res, expr, opts)
	}
	return res
}

func (r *Runner) searchStreaming(path string, expr query.Expr, opts types.MatchOptions) FileMatch {
	res := FileMatch{Path: path}

	sres := stream.ProcessInChunks(path, func(chunk []byte) bool {
		ok, err := r.evaluator.Evaluate(expr, string(chunk), opts)
		if err != nil {
			debug.LogStream("evaluate failed for chunk of %s: %v", path, err)
			return false
		}
		return ok
	}, r.streamOptions())

	if sres.Err != nil {
		res.Err = sres.Err
		return res
	}
	res.Matched = sres.Matched
	if res.Matched {
		r.extractLines(&res, expr, opts)
	}
	return res
}

func (r *Runner) extractLines(res *FileMatch, expr query.Expr, opts types.MatchOptions) {
	lres := stream.ExtractMatchedLines(res.Path, func(line []byte) bool {
		ok, err := r.evaluator.Evaluate(expr, string(line), opts)
		return err == nil && ok
	}, r.streamOptions())

	if lres.Err != nil {
		res.Err = lres.Err
		return
	}
	res.Lines = lres.Lines
	res.Truncated = lres.Truncated
}

func (r *Runner) streamOptions() stream.Options {
	return stream.Options{
		ChunkSize:        r.cfg.Stream.ChunkSizeKB * 1024,
		MaxFileSize:      r.cfg.Stream.MaxFileSizeMB * 1024 * 1024,
		EarlyTermination: r.cfg.Stream.EarlyTermination,
	}
}

// readCached returns the file content, served from the content cache when
// the size and mtime still match.
func (r *Runner) readCached(path string, info os.FileInfo) (string, error) {
	mod := info.ModTime().UnixNano()
	if entry, ok := r.content.Get(path); ok {
		if entry.modTime == mod && entry.size == info.Size() {
			debug.LogCache("content hit for %s", path)
			return entry.content, nil
		}
		r.content.Delete(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", ferrors.NewFileError("read", path, err)
	}
	content := string(data)
	r.content.Set(path, cachedFile{modTime: mod, size: info.Size(), content: content})
	return content, nil
}
