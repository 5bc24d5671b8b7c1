package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/health"
	"github.com/standardbeagle/lci/internal/history"
	"github.com/standardbeagle/lci/internal/retrieval"
)

// Registry checks out per-project-root Workspaces on demand, bounded by a
// capacity-limited LRU (spec section 4.9: "bounded LRU (default 4)").
// Concurrent checkouts of the same root are de-duplicated with
// singleflight (SPEC_FULL §2: golang.org/x/sync wired into the workspace
// registry checkout path).
type Registry struct {
	mu          sync.Mutex
	cfg         *config.Config
	codexHome   string
	workspaces  map[string]*Workspace
	lru         []string // least-recently-used first
	group       singleflight.Group
	defaultRoot string
}

// NewRegistry creates a registry rooted at codexHome (per-user state root,
// spec section 6). The default workspace (cfg.Project.Root) is primed
// eagerly by PrimeDefault.
func NewRegistry(cfg *config.Config, codexHome string) *Registry {
	return &Registry{
		cfg:         cfg,
		codexHome:   codexHome,
		workspaces:  make(map[string]*Workspace),
		defaultRoot: cfg.Project.Root,
	}
}

// PrimeDefault builds and registers the default workspace at startup.
func (r *Registry) PrimeDefault(ctx context.Context) error {
	h, err := r.Checkout(ctx, r.defaultRoot)
	if err != nil {
		return err
	}
	defer h.Release()
	return h.RebuildFull(ctx)
}

// Checkout returns the workspace for root, creating it if necessary and
// evicting the least-recently-used idle workspace if the registry is at
// capacity.
func (r *Registry) Checkout(ctx context.Context, root string) (*WorkspaceHandle, error) {
	if root == "" {
		root = r.defaultRoot
	}
	root = filepath.Clean(root)

	v, err, _ := r.group.Do(root, func() (interface{}, error) {
		r.mu.Lock()
		if ws, ok := r.workspaces[root]; ok {
			r.touchLocked(root)
			r.mu.Unlock()
			return ws, nil
		}
		r.mu.Unlock()

		ws, err := r.build(root)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.evictIfNeededLocked()
		r.workspaces[root] = ws
		r.touchLocked(root)
		r.mu.Unlock()
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	ws := v.(*Workspace)
	ws.refCount++
	ws.lastCheckout = time.Now()
	return &WorkspaceHandle{Workspace: ws, registry: r}, nil
}

func (r *Registry) build(root string) (*Workspace, error) {
	wsCfg := *r.cfg
	wsCfg.Project.Root = root

	projectHash := hashRoot(root)
	wsDir := filepath.Join(r.codexHome, "navigator", projectHash)
	if err := os.MkdirAll(filepath.Join(wsDir, "index"), 0755); err != nil {
		return nil, fmt.Errorf("create workspace dir for %s: %w", root, err)
	}

	embedder := retrieval.NewLocalEmbedder(wsCfg.Retrieval.EmbeddingDim)
	store, err := retrieval.OpenVectorStore(filepath.Join(wsDir, "index", "vectors.db"), wsCfg.Retrieval.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("open vector store for %s: %w", root, err)
	}
	pipeline := retrieval.NewPipeline(embedder, store, wsCfg.Retrieval)

	histStore := history.New(filepath.Join(wsDir, "queries", "history.json"), wsCfg.History)
	healthStore := health.New(filepath.Join(wsDir, "health.bin"), wsCfg.Health, projectHash)

	debug.LogIndexing("registry: checked out new workspace %s (hash %s)", root, projectHash)
	return newWorkspace(root, &wsCfg, pipeline, histStore, healthStore), nil
}

// touchLocked moves root to the most-recently-used end of the LRU list.
// Callers must hold r.mu.
func (r *Registry) touchLocked(root string) {
	for i, existing := range r.lru {
		if existing == root {
			r.lru = append(r.lru[:i], r.lru[i+1:]...)
			break
		}
	}
	r.lru = append(r.lru, root)
}

// evictIfNeededLocked drops the least-recently-used workspace with no
// in-flight holders once the registry is at capacity. Callers must hold
// r.mu.
func (r *Registry) evictIfNeededLocked() {
	limit := r.cfg.Daemon.MaxWorkspaces
	if limit <= 0 {
		limit = 4
	}
	for len(r.workspaces) >= limit {
		evicted := false
		for i, root := range r.lru {
			ws, ok := r.workspaces[root]
			if !ok {
				r.lru = append(r.lru[:i], r.lru[i+1:]...)
				evicted = true
				break
			}
			if ws.refCount > 0 {
				continue
			}
			delete(r.workspaces, root)
			r.lru = append(r.lru[:i], r.lru[i+1:]...)
			debug.LogIndexing("registry: evicted idle workspace %s", root)
			evicted = true
			break
		}
		if !evicted {
			return // every workspace has an in-flight holder; let capacity grow
		}
	}
}

// Len reports how many workspaces are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
