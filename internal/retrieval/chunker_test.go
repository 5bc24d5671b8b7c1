package retrieval

import (
	"strings"
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRetrievalConfig() config.Retrieval {
	return config.Retrieval{
		ChunkTargetTokens:         50,
		ChunkMaxTokens:            120,
		EmbeddingDim:              16,
		TokenBudgetCharsPerToken:  4,
		TokenBudgetHeaderOverhead: 20,
	}
}

func TestChunkContent_SplitsGoFunctionsIntoSeparateChunks(t *testing.T) {
	src := `package demo

import "fmt"

func A() {
	fmt.Println("a")
}

func B() {
	fmt.Println("b")
}
`
	chunks := ChunkContent("demo.go", src, types.LanguageGo, testRetrievalConfig())
	require.Len(t, chunks, 2)
	assert.Equal(t, ChunkFunction, chunks[0].Kind)
	assert.Equal(t, "A", chunks[0].Symbol)
	assert.Equal(t, "B", chunks[1].Symbol)
}

func TestChunkContent_PrependsImportsForFunctionChunks(t *testing.T) {
	src := "import \"fmt\"\n\nfunc A() {\n\tfmt.Println(1)\n}\n"
	chunks := ChunkContent("demo.go", src, types.LanguageGo, testRetrievalConfig())
	require.NotEmpty(t, chunks)
	assert.True(t, strings.Contains(chunks[0].Content, "import \"fmt\""))
}

func TestChunkContent_NoBlockStartYieldsSingleChunk(t *testing.T) {
	src := "x = 1\ny = 2\nz = 3\n"
	chunks := ChunkContent("demo.py", src, types.LanguagePython, testRetrievalConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].StartLine)
}

func TestChunkContent_ReSplitsOversizedBlock(t *testing.T) {
	var b strings.Builder
	b.WriteString("fn big() {\n")
	for i := 0; i < 200; i++ {
		b.WriteString("    let x = 1;\n")
	}
	b.WriteString("}\n")

	cfg := testRetrievalConfig()
	cfg.ChunkMaxTokens = 10
	cfg.ChunkTargetTokens = 5

	chunks := ChunkContent("big.rs", b.String(), types.LanguageRust, cfg)
	assert.Greater(t, len(chunks), 1)
}
