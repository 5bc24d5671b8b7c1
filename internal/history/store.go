// Package history persists recent and pinned search queries for replay,
// one JSON file per workspace (spec section 4.11).
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

var (
	// ErrNotFound is returned when an index is out of range.
	ErrNotFound = fmt.Errorf("history: entry not found")
	// ErrNoReplayMetadata is returned when pinning an entry that was never
	// recorded with a replayable query.
	ErrNoReplayMetadata = fmt.Errorf("history: entry has no replay metadata")
)

type document struct {
	Recent []types.HistoryEntry
	Pinned []types.HistoryEntry
}

// Store holds the recent (LIFO, bounded) and pinned (bounded) entry lists
// for one workspace, persisted to a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  config.History
	doc  document
}

// New loads (or initializes) the store at path.
func New(path string, cfg config.History) *Store {
	s := &Store{path: path, cfg: cfg}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return
	}
	s.doc = doc
}

// RecordEntry inserts entry at the head of the recent list. If an entry
// with the same QueryID already exists it is removed first, so the net
// effect is "move to front" (spec section 5, History ordering guarantee).
// The captured-hits slice is truncated to HitsPerEntry and the recent list
// to RecentLimit.
func (s *Store) RecordEntry(entry types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entry.Hits) > s.cfg.HitsPerEntry {
		entry.Hits = entry.Hits[:s.cfg.HitsPerEntry]
	}

	filtered := s.doc.Recent[:0:0]
	for _, e := range s.doc.Recent {
		if e.QueryID != entry.QueryID {
			filtered = append(filtered, e)
		}
	}
	s.doc.Recent = append([]types.HistoryEntry{entry}, filtered...)
	if len(s.doc.Recent) > s.cfg.RecentLimit {
		s.doc.Recent = s.doc.Recent[:s.cfg.RecentLimit]
	}
	return s.persistLocked()
}

// Recent returns up to limit recent entries, most recent first. limit<=0
// means "all".
func (s *Store) Recent(limit int) []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.doc.Recent) {
		limit = len(s.doc.Recent)
	}
	return append([]types.HistoryEntry(nil), s.doc.Recent[:limit]...)
}

// EntryAt returns the recent entry at index i (0 = most recent).
func (s *Store) EntryAt(i int) (*types.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.doc.Recent) {
		return nil, ErrNotFound
	}
	e := s.doc.Recent[i]
	return &e, nil
}

// Pinned returns the current pinned entries, most recently pinned first.
func (s *Store) Pinned() []types.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.HistoryEntry(nil), s.doc.Pinned...)
}

// PinRecent pins the recent entry at index i. Requires the entry to carry
// replay metadata. Idempotent: pinning an already-pinned query_id is a
// no-op. The pinned list is truncated to PinnedLimit, evicting the oldest
// pin.
func (s *Store) PinRecent(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.doc.Recent) {
		return ErrNotFound
	}
	entry := s.doc.Recent[i]
	if entry.RecordedQuery == nil {
		return ErrNoReplayMetadata
	}
	for _, p := range s.doc.Pinned {
		if p.QueryID == entry.QueryID {
			return s.persistLocked()
		}
	}
	entry.Pinned = true
	s.doc.Pinned = append([]types.HistoryEntry{entry}, s.doc.Pinned...)
	if len(s.doc.Pinned) > s.cfg.PinnedLimit {
		s.doc.Pinned = s.doc.Pinned[:s.cfg.PinnedLimit]
	}
	return s.persistLocked()
}

// Unpin removes the pinned entry at index i.
func (s *Store) Unpin(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.doc.Pinned) {
		return ErrNotFound
	}
	s.doc.Pinned = append(s.doc.Pinned[:i], s.doc.Pinned[i+1:]...)
	return s.persistLocked()
}

// ReplayRecent returns the replayable query for the recent entry at index i.
func (s *Store) ReplayRecent(i int) (*types.RecordedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.doc.Recent) {
		return nil, ErrNotFound
	}
	q := s.doc.Recent[i].RecordedQuery
	if q == nil {
		return nil, ErrNoReplayMetadata
	}
	return q, nil
}

// ReplayPinned returns the replayable query for the pinned entry at index i.
func (s *Store) ReplayPinned(i int) (*types.RecordedQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.doc.Pinned) {
		return nil, ErrNotFound
	}
	q := s.doc.Pinned[i].RecordedQuery
	if q == nil {
		return nil, ErrNoReplayMetadata
	}
	return q, nil
}

func (s *Store) persistLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write history temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename history temp file: %w", err)
	}
	return nil
}
