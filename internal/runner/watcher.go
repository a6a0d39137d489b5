package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/findql/internal/config"
	"github.com/standardbeagle/findql/internal/debug"
	"github.com/standardbeagle/findql/internal/walk"
)

// Watcher invalidates cached file content when files change on disk and
// reports the changed paths after a debounce window. Used by watch mode to
// re-run the query only against files that actually changed. Events pass
// the same include/exclude and binary filters as the batch walk, so watch
// mode never reports a file the initial search would have skipped.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	root      string
	exclude   []string // cfg.Exclude, or walk.DefaultExcludes when empty
	debounce  time.Duration
	onChanged func(paths []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher rooted at root. onChanged receives the
// batch of changed paths after each debounce window; it runs on the
// watcher's goroutine.
func NewWatcher(cfg *config.Config, root string, onChanged func(paths []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	exclude := cfg.Exclude
	if len(exclude) == 0 {
		exclude = walk.DefaultExcludes
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:   fsw,
		cfg:       cfg,
		root:      root,
		exclude:   exclude,
		debounce:  time.Duration(cfg.Performance.WatchDebounceMs) * time.Millisecond,
		onChanged: onChanged,
		pending:   make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start adds watches for every non-excluded directory under root and begins
// processing events.
func (w *Watcher) Start() error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop tears down the watcher and waits for its goroutine to exit. Pending
// debounced events are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}

		// Resolve symlinks so a cycle does not loop forever.
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if w.excludedDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			debug.Warn("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) excludedDir(path string) bool {
	rel := w.relPath(path)
	if rel == "." {
		return false
	}
	return walk.MatchesAny(w.exclude, rel+"/")
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			debug.Warn("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}
	path := event.Name

	info, statErr := os.Stat(path)
	if statErr == nil && info.IsDir() {
		// New directories need their own watch.
		if event.Op&fsnotify.Create != 0 && !w.excludedDir(path) {
			if err := w.watcher.Add(path); err != nil {
				debug.Warn("failed to watch new directory %s: %v", path, err)
			}
		}
		return
	}

	// Removes and renames must still invalidate the cache, so the binary
	// sniff only applies while the file exists on disk.
	if !w.relevantFile(path, statErr == nil) {
		return
	}

	debug.Log("WATCH", "queueing %v for %s\n", event.Op, path)
	w.mu.Lock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
	w.mu.Unlock()
}

// relevantFile applies the same include/exclude and binary filters as the
// batch walk to a changed path. With no include patterns every non-excluded
// file is relevant.
func (w *Watcher) relevantFile(path string, exists bool) bool {
	rel := w.relPath(path)

	if walk.MatchesAny(w.exclude, rel) {
		return false
	}
	if len(w.cfg.Include) > 0 && !walk.MatchesAny(w.cfg.Include, rel) {
		return false
	}
	if exists && w.cfg.Stream.SkipBinary && walk.IsBinary(path) {
		return false
	}
	return true
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	if w.onChanged != nil {
		w.onChanged(paths)
	}
}
