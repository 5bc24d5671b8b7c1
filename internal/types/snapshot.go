package types

import "time"

// FileText holds stripped, line-indexed raw content for snippet extraction
// (spec section 3, `text: map path -> FileText`).
type FileText struct {
	Path  string
	Lines []string
}

// Line returns the 1-indexed line, or "" if out of range.
func (t *FileText) Line(n int) string {
	if t == nil || n < 1 || n > len(t.Lines) {
		return ""
	}
	return t.Lines[n-1]
}

// Excerpt returns lines [n-before, n+after] (1-indexed, clamped) as a
// slice of lines, used by the fallback resolver's +/-2-line excerpts.
func (t *FileText) Excerpt(n, before, after int) []string {
	if t == nil {
		return nil
	}
	start := n - before
	if start < 1 {
		start = 1
	}
	end := n + after
	if end > len(t.Lines) {
		end = len(t.Lines)
	}
	if start > end {
		return nil
	}
	return append([]string(nil), t.Lines[start-1:end]...)
}

// AtlasNode is one node of the hierarchical workspace summary tree (spec
// section 3, C4). Children are strictly tree-shaped; no back-references.
type AtlasNode struct {
	Name         string
	Kind         string // "root" | "crate" | "module"
	Path         string
	FileCount    int
	SymbolCount  int
	LOC          int
	DocFiles     int
	TestFiles    int
	DepFiles     int
	RecentFiles  int
	Children     []*AtlasNode
}

// AtlasSnapshot is the rebuilt-after-every-mutation workspace summary.
type AtlasSnapshot struct {
	GeneratedAt time.Time
	Root        *AtlasNode
}

// Snapshot is the complete in-memory materialization of one workspace's
// index (spec section 3). It is treated as an (approximately) immutable
// value: mutation happens by building a new Snapshot and swapping it in
// under the owning coordinator's lock, never by mutating maps in place
// while readers may be observing them.
type Snapshot struct {
	Files           map[string]*FileEntry
	Symbols         map[SymbolID]*SymbolRecord
	Text            map[string]*FileText
	TokenToFiles    map[string]map[string]struct{}
	TrigramToFiles  map[uint32]map[string]struct{}
	Atlas           *AtlasSnapshot
	BuiltAt         time.Time
}

// NewSnapshot returns an empty, fully-initialized snapshot so that every
// map is non-nil and safe to range/write into from the builder.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Files:          make(map[string]*FileEntry),
		Symbols:        make(map[SymbolID]*SymbolRecord),
		Text:           make(map[string]*FileText),
		TokenToFiles:   make(map[string]map[string]struct{}),
		TrigramToFiles: make(map[uint32]map[string]struct{}),
	}
}

// AddToken records path under token in the inverted index, maintaining
// invariant 1 of spec section 8.
func (s *Snapshot) AddToken(token, path string) {
	set, ok := s.TokenToFiles[token]
	if !ok {
		set = make(map[string]struct{})
		s.TokenToFiles[token] = set
	}
	set[path] = struct{}{}
}

// AddTrigram records path under a packed trigram, maintaining invariant 1.
func (s *Snapshot) AddTrigram(tri uint32, path string) {
	set, ok := s.TrigramToFiles[tri]
	if !ok {
		set = make(map[string]struct{})
		s.TrigramToFiles[tri] = set
	}
	set[path] = struct{}{}
}

// RemoveFile deletes every trace of path: its FileEntry, its owned
// SymbolRecords, and its membership in both inverted indexes.
func (s *Snapshot) RemoveFile(path string) {
	entry, ok := s.Files[path]
	if !ok {
		return
	}
	for _, id := range entry.SymbolIDs {
		delete(s.Symbols, id)
	}
	delete(s.Text, path)
	delete(s.Files, path)

	for _, set := range s.TokenToFiles {
		delete(set, path)
	}
	for _, set := range s.TrigramToFiles {
		delete(set, path)
	}
}
