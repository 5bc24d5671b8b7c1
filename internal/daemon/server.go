// Package daemon implements the per-workspace navigator HTTP daemon (spec
// section 4.9): one HTTP server per process listening on 127.0.0.1:0,
// bearer-authenticated, fronting a bounded registry of project
// workspaces. Adapted from the teacher's internal/server.IndexServer
// (mutex-guarded lifecycle state, http.ServeMux route registration,
// background-goroutine indexing) with its Unix-domain-socket transport
// swapped for loopback TCP, since spec section 4.9 requires an
// OS-assigned TCP port rather than a socket file.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/searchplan"
	"github.com/standardbeagle/lci/internal/types"
)

// Daemon is the navigator HTTP server for one process. It owns a
// WorkspaceRegistry, a file watcher per checked-out workspace, and the
// on-disk metadata file clients poll to discover it.
type Daemon struct {
	cfg       *config.Config
	codexHome string
	secret    string

	registry *Registry
	watcher  *Watcher

	mu       sync.RWMutex
	running  bool
	listener net.Listener
	server   *http.Server

	startTime    time.Time
	shutdownChan chan struct{}
	wg           sync.WaitGroup

	metadataPath string
}

// New constructs a daemon for the given config and codex home. It does
// not start listening; call Start.
func New(cfg *config.Config, codexHome string) (*Daemon, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}
	registry := NewRegistry(cfg, codexHome)
	d := &Daemon{
		cfg:          cfg,
		codexHome:    codexHome,
		secret:       secret,
		registry:     registry,
		shutdownChan: make(chan struct{}),
		metadataPath: MetadataPath(codexHome, cfg.Project.Root),
	}
	d.watcher = NewWatcher(registry)
	return d, nil
}

// Start primes the default workspace, binds an OS-assigned loopback port,
// registers routes, writes daemon.json, and begins serving in the
// background. Mirrors IndexServer.Start's shape: mark running, listen,
// register handlers, launch background indexing, serve in a wg-tracked
// goroutine.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	d.listener = listener

	mux := http.NewServeMux()
	d.registerHandlers(mux)
	d.server = &http.Server{Handler: mux}

	go func() {
		debug.LogMCP("priming default workspace %s", d.cfg.Project.Root)
		if err := d.registry.PrimeDefault(ctx); err != nil {
			debug.LogMCP("default workspace priming failed: %v", err)
			return
		}
		if h, err := d.registry.Checkout(ctx, d.cfg.Project.Root); err == nil {
			d.watcher.Watch(h.Workspace)
			h.Release()
		}
	}()

	port := listener.Addr().(*net.TCPAddr).Port
	meta := types.DaemonMetadata{
		ProtocolVersion: schemaVersion,
		ProjectHash:     hashRoot(d.cfg.Project.Root),
		DefaultRoot:     d.cfg.Project.Root,
		Port:            port,
		Secret:          d.secret,
		PID:             os.Getpid(),
		StartedAt:       time.Now(),
	}
	if err := writeMetadata(d.metadataPath, meta); err != nil {
		return fmt.Errorf("write daemon metadata: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			debug.LogMCP("serve error: %v", err)
		}
	}()

	debug.LogMCP("navigator daemon listening on 127.0.0.1:%d", port)
	return nil
}

// Port returns the bound TCP port. Valid only after Start succeeds.
func (d *Daemon) Port() int {
	if d.listener == nil {
		return 0
	}
	return d.listener.Addr().(*net.TCPAddr).Port
}

// Wait blocks until Shutdown is called.
func (d *Daemon) Wait() {
	<-d.shutdownChan
}

// Shutdown gracefully stops the HTTP server, the watcher, and removes the
// metadata file.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	d.watcher.StopAll()

	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}
	d.wg.Wait()

	os.Remove(d.metadataPath)
	close(d.shutdownChan)
	debug.LogMCP("navigator daemon shut down cleanly")
	return nil
}

func (d *Daemon) registerHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", d.handleHealth)
	mux.Handle("/v1/nav/metrics", d.authenticated(d.handleMetrics))
	mux.Handle("/v1/nav/search", d.authenticated(d.handleSearch))
	mux.Handle("/v1/nav/open", d.authenticated(d.handleOpen))
	mux.Handle("/v1/nav/snippet", d.authenticated(d.handleSnippet))
	mux.Handle("/v1/nav/atlas", d.authenticated(d.handleAtlas))
	mux.Handle("/v1/nav/profile", d.authenticated(d.handleProfile))
	mux.Handle("/v1/nav/insights", d.authenticated(d.handleInsights))
	mux.Handle("/v1/nav/reindex", d.authenticated(d.handleReindex))
	mux.Handle("/v1/nav/settings", d.authenticated(d.handleSettings))
	mux.Handle("/v1/nav/doctor", d.authenticated(d.handleDoctor))
}

// authenticated wraps a handler with the bearer-auth check required on
// every route but /health (spec section 4.9/6).
func (d *Daemon) authenticated(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		expected := "Bearer " + d.secret
		if auth != expected {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		h(w, r)
	})
}

// checkSchemaVersion decodes the schema_version field out of a raw JSON
// body without fully unmarshaling it, so every handler can validate it
// before decoding into its specific request type.
func checkSchemaVersion(raw []byte) error {
	var probe struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if probe.SchemaVersion != schemaVersion {
		return fmt.Errorf("schema_version mismatch: daemon speaks %d, request sent %d", schemaVersion, probe.SchemaVersion)
	}
	return nil
}

func (d *Daemon) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponseBody{Status: "ok", Uptime: time.Since(d.startTime).Seconds()}
	writeJSON(w, http.StatusOK, resp)
}

func (d *Daemon) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !d.cfg.Daemon.MetricsEnabled {
		http.NotFound(w, r)
		return
	}
	promhttp.Handler().ServeHTTP(w, r)
}

func (d *Daemon) handleSearch(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body searchRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	var req *types.SearchRequest
	if body.InputFormat == "freeform" {
		req, err = searchplan.PlanSearchRequest(body.Freeform)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req = &types.SearchRequest{
			Query:      body.Query,
			Limit:      body.Limit,
			Filters:    body.Filters,
			WithRefs:   body.WithRefs,
			RefsLimit:  body.RefsLimit,
		}
		for _, p := range body.Profiles {
			req.Profiles = append(req.Profiles, types.Profile(p))
		}
	}

	started := time.Now()
	searchCfg := *d.cfg
	searchCfg.Search = handle.SearchConfig()

	resp := searchplan.Execute(handle.Snapshot(), req, &searchCfg)

	if handle.Health != nil {
		_ = handle.Health.RecordSearch(resp.Stats.FallbackUsed, 0, 0, float64(time.Since(started).Milliseconds()))
	}
	if handle.History != nil {
		_ = handle.History.RecordEntry(historyEntryFromResponse(req, resp))
	}

	events, err := searchplan.Stream(resp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeNDJSON(w, events)
}

func (d *Daemon) handleOpen(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body openRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	text := handle.Snapshot().Text[body.Path]
	if text == nil {
		writeJSON(w, http.StatusOK, openResponseBody{Path: body.Path, Error: "file not indexed"})
		return
	}
	start, end := body.StartLine, body.EndLine
	if start < 1 {
		start = 1
	}
	if end < start || end > len(text.Lines) {
		end = len(text.Lines)
	}
	var lines []string
	if start <= end {
		lines = append(lines, text.Lines[start-1:end]...)
	}
	writeJSON(w, http.StatusOK, openResponseBody{Path: body.Path, Lines: lines})
}

func (d *Daemon) handleSnippet(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body snippetRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	before, after := body.Before, body.After
	if before == 0 && after == 0 {
		before, after = 2, 2
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	text := handle.Snapshot().Text[body.Path]
	if text == nil {
		writeJSON(w, http.StatusOK, snippetResponseBody{Path: body.Path, Line: body.Line, Error: "file not indexed"})
		return
	}
	writeJSON(w, http.StatusOK, snippetResponseBody{
		Path:    body.Path,
		Line:    body.Line,
		Excerpt: text.Excerpt(body.Line, before, after),
	})
}

func (d *Daemon) handleAtlas(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body atlasRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	writeJSON(w, http.StatusOK, handle.Snapshot().Atlas)
}

func (d *Daemon) handleProfile(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body profileRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	req := &types.SearchRequest{Query: body.Query}
	for _, p := range body.Profiles {
		req.Profiles = append(req.Profiles, types.Profile(p))
	}
	searchplan.ApplyProfiles(req, handle.SearchConfig())
	writeJSON(w, http.StatusOK, profileResponseBody{Request: req})
}

func (d *Daemon) handleInsights(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body insightsRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	snap := handle.Health.Snapshot()
	var recent []string
	for _, e := range handle.History.Recent(5) {
		if e.RecordedQuery != nil {
			recent = append(recent, e.RecordedQuery.Query)
		}
	}
	writeJSON(w, http.StatusOK, insightsResponseBody{
		Risk:          string(handle.Health.ComputeRisk(time.Now())),
		QueryCount:    snap.QueryCount,
		FallbackCount: snap.FallbackCount,
		MedianScanMs:  handle.Health.MedianScanMs(),
		RecentQueries: recent,
	})
}

func (d *Daemon) handleReindex(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body reindexRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		defer handle.Release()
		ctx := context.Background()
		var err error
		if body.Full {
			err = handle.RebuildFull(ctx)
		} else {
			err = handle.RebuildIncremental(ctx)
		}
		if err != nil {
			debug.LogIndexing("reindex of %s failed: %v", handle.Root, err)
		}
	}()

	writeJSON(w, http.StatusOK, reindexResponseBody{Accepted: true})
}

func (d *Daemon) handleSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkSchemaVersion(raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body settingsRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	handle, err := d.registry.Checkout(r.Context(), body.ProjectRoot)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	if body.AutoFacetMaxDepth != nil {
		handle.SetAutoFacetMaxDepth(*body.AutoFacetMaxDepth)
	}
	writeJSON(w, http.StatusOK, settingsResponseBody{AutoFacetMaxDepth: handle.AutoFacetMaxDepth()})
}

func (d *Daemon) handleDoctor(w http.ResponseWriter, r *http.Request) {
	handle, err := d.registry.Checkout(r.Context(), d.cfg.Project.Root)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer handle.Release()

	snap := handle.Health.Snapshot()
	var ago string
	if snap.EverBuilt {
		ago = time.Since(snap.LastIngestAt).Round(time.Second).String()
	}
	writeJSON(w, http.StatusOK, doctorResponseBody{
		Risk:          string(handle.Health.ComputeRisk(time.Now())),
		EverBuilt:     snap.EverBuilt,
		LastIngestAgo: ago,
		QueryCount:    snap.QueryCount,
		FallbackCount: snap.FallbackCount,
		Workspaces:    d.registry.Len(),
	})
}

func historyEntryFromResponse(req *types.SearchRequest, resp *types.SearchResponse) types.HistoryEntry {
	var hits []types.HistoryHit
	for _, h := range resp.Hits {
		hits = append(hits, types.HistoryHit{Path: h.Path, Line: h.Line, Name: h.Name})
	}
	profiles := make([]string, 0, len(req.Profiles))
	for _, p := range req.Profiles {
		profiles = append(profiles, string(p))
	}
	return types.HistoryEntry{
		QueryID:       resp.QueryID,
		RecordedAt:    time.Now(),
		ActiveFilters: resp.ActiveFilters,
		Hits:          hits,
		RecordedQuery: &types.RecordedQuery{
			Query:     req.Query,
			Profiles:  profiles,
			Limit:     req.Limit,
			WithRefs:  req.WithRefs,
			Filters:   req.Filters,
		},
		FacetSuggestions: resp.FacetSuggestions,
	}
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := r.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	if len(buf) == 0 {
		return []byte("{}"), nil
	}
	return buf, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeNDJSON(w http.ResponseWriter, events []searchplan.StreamEvent) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	for _, ev := range events {
		line := struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}{Event: ev.Event, Data: ev.Data}
		data, err := json.Marshal(line)
		if err != nil {
			continue
		}
		w.Write(data)
		w.Write([]byte("\n"))
	}
}

