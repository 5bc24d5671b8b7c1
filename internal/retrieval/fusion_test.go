package retrieval

import (
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() ([]SourceResult, []SourceResult) {
	fuzzy := []SourceResult{
		{Key: "a.go:1:5", Chunk: Chunk{Path: "a.go", StartLine: 1, EndLine: 5}, Score: 1.0, Rank: 0},
		{Key: "b.go:1:5", Chunk: Chunk{Path: "b.go", StartLine: 1, EndLine: 5}, Score: 0.5, Rank: 1},
	}
	semantic := []SourceResult{
		{Key: "b.go:1:5", Chunk: Chunk{Path: "b.go", StartLine: 1, EndLine: 5}, Score: 0.9, Rank: 0},
		{Key: "c.go:1:5", Chunk: Chunk{Path: "c.go", StartLine: 1, EndLine: 5}, Score: 0.4, Rank: 1},
	}
	return fuzzy, semantic
}

func TestFuse_ReciprocalRankMergesAndRanks(t *testing.T) {
	fuzzy, semantic := sampleResults()
	cfg := config.Retrieval{FusionStrategy: string(FusionReciprocalRank), FusionSemanticWeight: 0.5, FusionFuzzyWeight: 0.5, FusionReciprocalK: 60}
	fused := Fuse(fuzzy, semantic, cfg, 0)
	require.Len(t, fused, 3)
	// b.go appears in both lists so it should outrank single-source entries.
	assert.Equal(t, "b.go:1:5", fused[0].Key)
	assert.Equal(t, 1, fused[0].Rank)
}

func TestFuse_TruncatesToFinalCount(t *testing.T) {
	fuzzy, semantic := sampleResults()
	cfg := config.Retrieval{FusionStrategy: string(FusionWeightedScore), FusionSemanticWeight: 0.6, FusionFuzzyWeight: 0.4}
	fused := Fuse(fuzzy, semantic, cfg, 1)
	assert.Len(t, fused, 1)
}

func TestFuse_SemanticOnlyIgnoresFuzzyList(t *testing.T) {
	fuzzy, semantic := sampleResults()
	cfg := config.Retrieval{FusionStrategy: string(FusionSemanticOnly)}
	fused := Fuse(fuzzy, semantic, cfg, 0)
	require.Len(t, fused, 2)
	for _, f := range fused {
		assert.NotEqual(t, "a.go:1:5", f.Key)
	}
}

func TestFuse_FuzzyOnlyIgnoresSemanticList(t *testing.T) {
	fuzzy, semantic := sampleResults()
	cfg := config.Retrieval{FusionStrategy: string(FusionFuzzyOnly)}
	fused := Fuse(fuzzy, semantic, cfg, 0)
	require.Len(t, fused, 2)
	for _, f := range fused {
		assert.NotEqual(t, "c.go:1:5", f.Key)
	}
}

func TestFuse_MaxScoreTakesHigherOfTheTwo(t *testing.T) {
	fuzzy, semantic := sampleResults()
	cfg := config.Retrieval{FusionStrategy: string(FusionMaxScore)}
	fused := Fuse(fuzzy, semantic, cfg, 0)
	var bScore float64
	for _, f := range fused {
		if f.Key == "b.go:1:5" {
			bScore = f.Score
		}
	}
	// normalized fuzzy score for b is 0.5, normalized semantic score for b is 1.0 (max in its list).
	assert.InDelta(t, 1.0, bScore, 1e-9)
}
