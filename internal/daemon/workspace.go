package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/standardbeagle/lci/internal/atlas"
	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/health"
	"github.com/standardbeagle/lci/internal/history"
	"github.com/standardbeagle/lci/internal/indexer"
	"github.com/standardbeagle/lci/internal/retrieval"
	"github.com/standardbeagle/lci/internal/types"
)

// WorkspaceHandle is a checked-out reference to a Workspace. Callers must
// call Release when done so the registry's LRU can reclaim idle
// workspaces (spec section 5, WorkspaceRegistry eviction rule).
type WorkspaceHandle struct {
	*Workspace
	registry *Registry
}

// Release returns the handle to the registry.
func (h *WorkspaceHandle) Release() {
	atomic.AddInt32(&h.Workspace.refCount, -1)
}

// Workspace holds all per-project-root state: the authoritative snapshot
// behind a read/write lock (spec section 5: "multiple concurrent readers
// during search; exclusive writers during ingest apply the whole rebuilt
// snapshot in a single swap"), the retrieval pipeline, and the history/
// health stores for that project.
type Workspace struct {
	Root string

	cfg     *config.Config
	builder *indexer.Builder

	snapMu sync.RWMutex
	snap   *types.Snapshot

	Pipeline *retrieval.Pipeline
	History  *history.Store
	Health   *health.Store

	settingsMu        sync.Mutex
	autoFacetMaxDepth int

	breaker *gobreaker.CircuitBreaker

	refCount     int32
	lastCheckout time.Time
}

func newWorkspace(root string, cfg *config.Config, pipeline *retrieval.Pipeline, hist *history.Store, hlt *health.Store) *Workspace {
	breakerCfg := gobreaker.Settings{
		Name:    "retrieval:" + root,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Workspace{
		Root:              root,
		cfg:               cfg,
		builder:           indexer.New(cfg),
		Pipeline:          pipeline,
		History:           hist,
		Health:            hlt,
		autoFacetMaxDepth: cfg.Search.AutoFacetMaxDepth,
		breaker:           gobreaker.NewCircuitBreaker(breakerCfg),
		lastCheckout:      time.Now(),
	}
}

// Snapshot returns the currently active snapshot. Safe for concurrent use
// alongside Rebuild.
func (w *Workspace) Snapshot() *types.Snapshot {
	w.snapMu.RLock()
	defer w.snapMu.RUnlock()
	return w.snap
}

// RebuildFull runs a full index build and swaps the snapshot atomically.
func (w *Workspace) RebuildFull(ctx context.Context) error {
	started := time.Now()
	snap, err := w.builder.BuildFull(ctx)
	if err != nil {
		return err
	}
	snap.Atlas = atlas.Build(w.Root, snap)

	w.snapMu.Lock()
	w.snap = snap
	w.snapMu.Unlock()

	w.reindexRetrieval(ctx, snap)

	if w.Health != nil {
		_ = w.Health.RecordIngest(health.IngestRun{
			Full:         true,
			StartedAt:    started,
			DurationMs:   time.Since(started).Milliseconds(),
			FilesIndexed: len(snap.Files),
		})
	}
	debug.LogIndexing("workspace %s: full rebuild, %d files", w.Root, len(snap.Files))
	return nil
}

// reindexRetrieval feeds every file's text into the hybrid retrieval
// pipeline (chunk, embed, upsert), guarded by a circuit breaker: a
// wedged embedder or vector store trips the breaker after 5 consecutive
// failures and the remaining files are skipped for this rebuild rather
// than hanging the ingest (spec section 5 names the embedder's I/O as a
// suspension point; SPEC_FULL §2 wires gobreaker around exactly this
// call for that reason).
func (w *Workspace) reindexRetrieval(ctx context.Context, snap *types.Snapshot) {
	if w.Pipeline == nil {
		return
	}
	for path, text := range snap.Text {
		entry := snap.Files[path]
		if entry == nil {
			continue
		}
		content := joinLines(text.Lines)
		_, err := w.breaker.Execute(func() (interface{}, error) {
			return nil, w.Pipeline.IndexFile(ctx, path, content, entry.Language)
		})
		if err != nil {
			debug.LogIndexing("workspace %s: retrieval reindex of %s skipped: %v", w.Root, path, err)
			if err == gobreaker.ErrOpenState {
				return
			}
		}
	}
}

func joinLines(lines []string) string {
	total := 0
	for _, l := range lines {
		total += len(l) + 1
	}
	buf := make([]byte, 0, total)
	for i, l := range lines {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, l...)
	}
	return string(buf)
}

// RebuildIncremental runs a delta build against the current snapshot and
// swaps it in. Deltas are serialized by the caller (the watcher's single
// goroutine) to preserve ordering (spec section 5).
func (w *Workspace) RebuildIncremental(ctx context.Context) error {
	started := time.Now()
	prior := w.Snapshot()
	snap, err := w.builder.BuildIncremental(ctx, prior)
	if err != nil {
		return err
	}
	snap.Atlas = atlas.Build(w.Root, snap)

	w.snapMu.Lock()
	w.snap = snap
	w.snapMu.Unlock()

	w.reindexRetrieval(ctx, snap)

	if w.Health != nil {
		_ = w.Health.RecordIngest(health.IngestRun{
			Full:         false,
			StartedAt:    started,
			DurationMs:   time.Since(started).Milliseconds(),
			FilesIndexed: len(snap.Files),
		})
	}
	debug.LogIndexing("workspace %s: incremental rebuild, %d files", w.Root, len(snap.Files))
	return nil
}

// AutoFacetMaxDepth returns the effective (possibly per-workspace
// overridden) auto-facet depth cap.
func (w *Workspace) AutoFacetMaxDepth() int {
	w.settingsMu.Lock()
	defer w.settingsMu.Unlock()
	return w.autoFacetMaxDepth
}

// SetAutoFacetMaxDepth overrides the configured auto-facet depth cap for
// this workspace (POST /v1/nav/settings).
func (w *Workspace) SetAutoFacetMaxDepth(depth int) {
	w.settingsMu.Lock()
	defer w.settingsMu.Unlock()
	w.autoFacetMaxDepth = depth
}

// SearchConfig returns a copy of the search config with any per-workspace
// overrides applied.
func (w *Workspace) SearchConfig() config.Search {
	cfg := w.cfg.Search
	cfg.AutoFacetMaxDepth = w.AutoFacetMaxDepth()
	return cfg
}
