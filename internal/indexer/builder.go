// Package indexer implements the index builder (component C3): full and
// incremental rebuild of the in-memory Snapshot from the candidates
// yielded by the path filter (C1) and the symbols extracted by the
// language scanner (C2).
package indexer

import (
	"context"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/debug"
	"github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/pathfilter"
	"github.com/standardbeagle/lci/internal/scanner"
	"github.com/standardbeagle/lci/internal/types"
)

// Builder owns the per-workspace build pipeline: path filtering, scanning,
// fingerprinting, and snapshot assembly.
type Builder struct {
	cfg     *config.Config
	filter  *pathfilter.PathFilter
	workers int
}

// New constructs a Builder for cfg's project root.
func New(cfg *config.Config) *Builder {
	workers := cfg.Performance.ParallelFileWorkers
	if workers <= 0 {
		workers = cfg.Performance.MaxGoroutines
	}
	if workers <= 0 {
		workers = 4
	}
	return &Builder{cfg: cfg, filter: pathfilter.New(cfg), workers: workers}
}

// fileResult is one file's scan output, computed off the main goroutine
// and merged into the snapshot sequentially to keep map writes race-free.
type fileResult struct {
	relPath string
	entry   *types.FileEntry
	symbols []*types.SymbolRecord
	text    *types.FileText
	err     error
}

// BuildFull performs a complete rebuild, scanning every file the path
// filter yields (spec §4.3).
func (b *Builder) BuildFull(ctx context.Context) (*types.Snapshot, error) {
	var candidates []pathfilter.Candidate
	if err := b.filter.Walk(func(c pathfilter.Candidate) error {
		candidates = append(candidates, c)
		return nil
	}); err != nil {
		return nil, errors.NewIndexingError("walk", err)
	}
	return b.scanAll(ctx, candidates, nil)
}

// BuildIncremental rediscovers the workspace and reuses prior's entries
// for any file whose mtime and size are unchanged, re-scanning only
// additions and modifications, and dropping files no longer present
// (spec §4.3 invariant: unchanged fingerprint must not be re-scanned).
// The content digest of a reused file is not recomputed, so an edit that
// leaves both mtime and size as they were is not picked up.
func (b *Builder) BuildIncremental(ctx context.Context, prior *types.Snapshot) (*types.Snapshot, error) {
	var candidates []pathfilter.Candidate
	present := make(map[string]bool)
	if err := b.filter.Walk(func(c pathfilter.Candidate) error {
		candidates = append(candidates, c)
		present[c.RelPath] = true
		return nil
	}); err != nil {
		return nil, errors.NewIndexingError("walk", err)
	}
	return b.scanAll(ctx, candidates, prior)
}

func (b *Builder) scanAll(ctx context.Context, candidates []pathfilter.Candidate, prior *types.Snapshot) (*types.Snapshot, error) {
	results := make([]fileResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, b.workers)
	var mu sync.Mutex

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			res := b.scanOne(c, prior)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.NewIndexingError("scan", err)
	}

	snap := types.NewSnapshot()
	for _, res := range results {
		if res.err != nil {
			debug.LogIndexing("indexer: skipping %s: %v", res.relPath, res.err)
			continue
		}
		mergeResult(snap, res)
	}
	snap.BuiltAt = time.Now()
	snap.Atlas = nil // rebuilt separately by internal/atlas from the finished snapshot
	return snap, nil
}

func mergeResult(snap *types.Snapshot, res fileResult) {
	snap.Files[res.relPath] = res.entry
	if res.text != nil {
		snap.Text[res.relPath] = res.text
	}
	for _, sym := range res.symbols {
		snap.Symbols[sym.ID] = sym
	}
	for _, tok := range res.entry.Tokens {
		snap.AddToken(tok, res.relPath)
	}
	for _, tri := range res.entry.Trigrams {
		snap.AddTrigram(tri, res.relPath)
	}
}

// scanOne runs steps 1-10 of spec §4.3 for a single candidate, reusing
// prior's FileEntry when its recorded mtime and size match.
func (b *Builder) scanOne(c pathfilter.Candidate, prior *types.Snapshot) fileResult {
	modTime := c.Info.ModTime().Unix()
	size := c.Info.Size()

	if prior != nil {
		if prevEntry, ok := prior.Files[c.RelPath]; ok &&
			prevEntry.Fingerprint.ModTime == modTime && prevEntry.Fingerprint.Size == size {
			return reuse(c.RelPath, prevEntry, prior)
		}
	}

	if size > types.MaxFileBytes {
		entry := &types.FileEntry{
			Path:          c.RelPath,
			Language:      scanner.DetectLanguage(c.RelPath),
			Categories:    classifyCategories(c.RelPath),
			SkipReason:    types.SkipOversize,
			OversizeBytes: size,
			Fingerprint:   types.FileFingerprint{ModTime: modTime, Size: size},
		}
		return fileResult{relPath: c.RelPath, entry: entry}
	}

	content, err := os.ReadFile(c.AbsPath)
	if err != nil {
		return fileResult{relPath: c.RelPath, err: err}
	}
	if !utf8.Valid(content) {
		entry := &types.FileEntry{
			Path:        c.RelPath,
			Language:    scanner.DetectLanguage(c.RelPath),
			Categories:  classifyCategories(c.RelPath),
			SkipReason:  types.SkipNonUTF8,
			Fingerprint: types.FileFingerprint{ModTime: modTime, Size: size},
		}
		return fileResult{relPath: c.RelPath, entry: entry}
	}

	lang := scanner.DetectLanguage(c.RelPath)
	text := string(content)
	lines := splitLines(text)

	candidates := scanner.ExtractSymbols(lang, lines)
	skip := types.SkipNone
	if len(candidates) == 0 {
		skip = types.SkipNoSymbols
	}

	var symbolIDs []types.SymbolID
	var records []*types.SymbolRecord
	for _, cand := range candidates {
		id, identifier := SymbolID(c.RelPath, cand.StartLine, cand.Name)
		symbolIDs = append(symbolIDs, id)
		records = append(records, &types.SymbolRecord{
			ID:         id,
			Identifier: identifier,
			Kind:       cand.Kind,
			Language:   lang,
			Path:       c.RelPath,
			SymbolPath: types.SymbolPath{cand.Name},
			Range:      types.Range{StartLine: cand.StartLine, EndLine: cand.EndLine},
			Module:     moduleFor(c.RelPath),
			Layer:      layerFor(c.RelPath),
			Categories: classifyCategories(c.RelPath),
			Preview:    cand.Preview,
			DocSummary: cand.DocSummary,
		})
	}

	entry := &types.FileEntry{
		Path:             c.RelPath,
		Language:         lang,
		Categories:       classifyCategories(c.RelPath),
		SymbolIDs:        symbolIDs,
		Tokens:           tokenize(text),
		Trigrams:         trigrams(text),
		LineCount:        len(lines),
		AttentionMarkers: countAttentionMarkers(lines),
		Fingerprint:      computeFingerprint(modTime, size, content),
		SkipReason:       skip,
		Layer:            layerFor(c.RelPath),
		Module:           moduleFor(c.RelPath),
	}

	return fileResult{
		relPath: c.RelPath,
		entry:   entry,
		symbols: records,
		text:    &types.FileText{Path: c.RelPath, Lines: lines},
	}
}

func reuse(relPath string, prevEntry *types.FileEntry, prior *types.Snapshot) fileResult {
	var records []*types.SymbolRecord
	for _, id := range prevEntry.SymbolIDs {
		if rec, ok := prior.Symbols[id]; ok {
			records = append(records, rec)
		}
	}
	return fileResult{
		relPath: relPath,
		entry:   prevEntry,
		symbols: records,
		text:    prior.Text[relPath],
	}
}

func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			end := i
			if end > start && text[end-1] == '\r' {
				end--
			}
			lines = append(lines, text[start:end])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
