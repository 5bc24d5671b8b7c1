package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

func testCfg() config.History {
	return config.History{RecentLimit: 10, PinnedLimit: 5, HitsPerEntry: 4}
}

func entry(id string) types.HistoryEntry {
	return types.HistoryEntry{
		QueryID:       id,
		RecordedQuery: &types.RecordedQuery{Query: "q-" + id},
		Hits:          []types.HistoryHit{{Path: "a"}, {Path: "b"}, {Path: "c"}, {Path: "d"}, {Path: "e"}},
	}
}

func TestRecordEntry_TruncatesHitsToFour(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))
	recent := s.Recent(0)
	require.Len(t, recent, 1)
	assert.Len(t, recent[0].Hits, 4)
}

func TestRecordEntry_DedupesByQueryIDMovesToFront(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))
	require.NoError(t, s.RecordEntry(entry("q2")))
	require.NoError(t, s.RecordEntry(entry("q1")))

	recent := s.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "q1", recent[0].QueryID)
	assert.Equal(t, "q2", recent[1].QueryID)
}

func TestRecordEntry_TruncatesToRecentLimit(t *testing.T) {
	cfg := testCfg()
	cfg.RecentLimit = 2
	s := New(filepath.Join(t.TempDir(), "history.json"), cfg)
	require.NoError(t, s.RecordEntry(entry("q1")))
	require.NoError(t, s.RecordEntry(entry("q2")))
	require.NoError(t, s.RecordEntry(entry("q3")))
	assert.Len(t, s.Recent(0), 2)
}

func TestPinRecent_RequiresReplayMetadata(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	e := entry("q1")
	e.RecordedQuery = nil
	require.NoError(t, s.RecordEntry(e))
	err := s.PinRecent(0)
	assert.ErrorIs(t, err, ErrNoReplayMetadata)
}

func TestPinRecent_IsIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))
	require.NoError(t, s.PinRecent(0))
	require.NoError(t, s.PinRecent(0))
	assert.Len(t, s.Pinned(), 1)
}

func TestPinRecent_TruncatesToPinnedLimit(t *testing.T) {
	cfg := testCfg()
	cfg.PinnedLimit = 1
	s := New(filepath.Join(t.TempDir(), "history.json"), cfg)
	require.NoError(t, s.RecordEntry(entry("q1")))
	require.NoError(t, s.RecordEntry(entry("q2")))
	require.NoError(t, s.PinRecent(0)) // pin q2 (head)
	require.NoError(t, s.PinRecent(1)) // pin q1
	assert.Len(t, s.Pinned(), 1)
}

func TestUnpin_RemovesEntry(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))
	require.NoError(t, s.PinRecent(0))
	require.NoError(t, s.Unpin(0))
	assert.Empty(t, s.Pinned())
}

func TestReplayRecent_ReturnsRecordedQuery(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))
	q, err := s.ReplayRecent(0)
	require.NoError(t, err)
	assert.Equal(t, "q-q1", q.Query)
}

func TestEntryAt_OutOfRangeReturnsErrNotFound(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "history.json"), testCfg())
	_, err := s.EntryAt(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := New(path, testCfg())
	require.NoError(t, s.RecordEntry(entry("q1")))

	reloaded := New(path, testCfg())
	assert.Len(t, reloaded.Recent(0), 1)
}
