package retrieval

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *VectorStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.db")
	store, err := OpenVectorStore(path, 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestVectorStore_UpsertThenSearchReturnsNearestByDistance(t *testing.T) {
	store := openTestStore(t)

	chunkA := Chunk{Path: "a.go", StartLine: 1, EndLine: 5, Content: "func A() {}", Kind: ChunkFunction, Symbol: "A"}
	chunkB := Chunk{Path: "b.go", StartLine: 1, EndLine: 5, Content: "func B() {}", Kind: ChunkFunction, Symbol: "B"}

	_, err := store.Upsert(chunkA, []float32{1, 0, 0, 0}, "local-fnv")
	require.NoError(t, err)
	_, err = store.Upsert(chunkB, []float32{0, 1, 0, 0}, "local-fnv")
	require.NoError(t, err)

	results, err := store.Search([]float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.go", results[0].Path)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestVectorStore_UpsertReplacesExistingChunkAtSameLocation(t *testing.T) {
	store := openTestStore(t)
	c := Chunk{Path: "a.go", StartLine: 1, EndLine: 5, Content: "old", Kind: ChunkGeneric}

	_, err := store.Upsert(c, []float32{1, 0, 0, 0}, "local-fnv")
	require.NoError(t, err)
	c.Content = "new"
	_, err = store.Upsert(c, []float32{1, 0, 0, 0}, "local-fnv")
	require.NoError(t, err)

	all, err := store.AllChunks()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Content)
}

func TestVectorStore_RejectsMismatchedDimension(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Upsert(Chunk{Path: "a.go"}, []float32{1, 2}, "local-fnv")
	assert.Error(t, err)
}
