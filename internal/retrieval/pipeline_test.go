package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/require"
)

func TestPipeline_IndexFileThenQueryReturnsRankedResults(t *testing.T) {
	cfg := testRetrievalConfig()
	cfg.EmbeddingDim = 32

	store, err := OpenVectorStore(filepath.Join(t.TempDir(), "vectors.db"), cfg.EmbeddingDim)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := NewLocalEmbedder(cfg.EmbeddingDim)
	pipeline := NewPipeline(embedder, store, cfg)

	src := "func ConnectDatabase() error {\n\treturn dial()\n}\n\nfunc RenderTemplate() string {\n\treturn \"\"\n}\n"
	require.NoError(t, pipeline.IndexFile(context.Background(), "main.go", src, types.LanguageGo))

	ranked, err := pipeline.Query(context.Background(), "connect to database", 10, 10, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
}
