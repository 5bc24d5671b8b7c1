package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/lci/internal/debug"
)

// Watcher drives incremental rebuilds from filesystem change events, one
// fsnotify watch tree per checked-out workspace. Adapted from the
// teacher's indexing.FileWatcher (recursive directory watch, debounced
// event coalescing) but trimmed to this daemon's single concern: trigger
// Workspace.RebuildIncremental, serialized per workspace so concurrent
// deltas apply in submission order (spec section 5).
type Watcher struct {
	registry *Registry

	mu      sync.Mutex
	workers map[string]*workspaceWatch
}

type workspaceWatch struct {
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher bound to registry.
func NewWatcher(registry *Registry) *Watcher {
	return &Watcher{registry: registry, workers: make(map[string]*workspaceWatch)}
}

// Watch begins watching ws.Root for changes. A second call for the same
// root is a no-op.
func (w *Watcher) Watch(ws *Workspace) {
	w.mu.Lock()
	if _, exists := w.workers[ws.Root]; exists {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		debug.LogIndexing("watcher: failed to create fsnotify watcher for %s: %v", ws.Root, err)
		return
	}
	if err := addWatchesRecursive(fsw, ws.Root); err != nil {
		debug.LogIndexing("watcher: failed to add watches under %s: %v", ws.Root, err)
		fsw.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	ww := &workspaceWatch{fsw: fsw, cancel: cancel, done: make(chan struct{})}

	w.mu.Lock()
	w.workers[ws.Root] = ww
	w.mu.Unlock()

	go w.run(ctx, ws, ww)
}

// run debounces bursts of fsnotify events into a single incremental
// rebuild, one at a time per workspace.
func (w *Watcher) run(ctx context.Context, ws *Workspace, ww *workspaceWatch) {
	defer close(ww.done)
	debounce := 300 * time.Millisecond
	var timer *time.Timer
	pending := false

	fire := func() {
		pending = false
		if err := ws.RebuildIncremental(ctx); err != nil {
			debug.LogIndexing("watcher: incremental rebuild for %s failed: %v", ws.Root, err)
		}
	}

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ww.fsw.Events:
			if !ok {
				return
			}
			if !pending {
				pending = true
				timer = time.NewTimer(debounce)
			}
		case err, ok := <-ww.fsw.Errors:
			if !ok {
				return
			}
			debug.LogIndexing("watcher: fsnotify error for %s: %v", ws.Root, err)
		case <-timerC:
			fire()
			timer = nil
		}
	}
}

// StopAll cancels every workspace watch and closes its fsnotify handle.
func (w *Watcher) StopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for root, ww := range w.workers {
		ww.cancel()
		ww.fsw.Close()
		<-ww.done
		delete(w.workers, root)
	}
}

var ignoredWatchDirs = map[string]bool{
	".git": true, "node_modules": true, "target": true, "vendor": true,
	".cache": true, "dist": true, "build": true,
}

func addWatchesRecursive(fsw *fsnotify.Watcher, root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if ignoredWatchDirs[filepath.Base(path)] {
			return filepath.SkipDir
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true
		if err := fsw.Add(path); err != nil {
			debug.LogIndexing("watcher: failed to watch %s: %v", path, err)
		}
		return nil
	})
}
