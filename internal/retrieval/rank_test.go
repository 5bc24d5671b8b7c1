package retrieval

import (
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyBudget_StopsBeforeExceedingBudget(t *testing.T) {
	cfg := config.Retrieval{TokenBudgetHeaderOverhead: 10}
	results := []FusedResult{
		{Key: "a", Chunk: Chunk{Tokens: 40}, Score: 3, Rank: 1},
		{Key: "b", Chunk: Chunk{Tokens: 40}, Score: 2, Rank: 2},
		{Key: "c", Chunk: Chunk{Tokens: 40}, Score: 1, Rank: 3},
	}
	// each entry costs 50 tokens; budget of 110 admits two but not three.
	selected := ApplyBudget(results, 110, cfg)
	require.Len(t, selected, 2)
	assert.Equal(t, "a", selected[0].Key)
	assert.Equal(t, "b", selected[1].Key)
	assert.Equal(t, 100, selected[1].CumulativeTokens)
}

func TestApplyBudget_ZeroBudgetTreatedAsUnbounded(t *testing.T) {
	cfg := config.Retrieval{TokenBudgetHeaderOverhead: 5}
	results := []FusedResult{
		{Key: "a", Chunk: Chunk{Tokens: 10}, Score: 1, Rank: 1},
	}
	selected := ApplyBudget(results, 0, cfg)
	require.Len(t, selected, 1)
}

func TestApplyBudget_EmptyResultsYieldsEmptySelection(t *testing.T) {
	selected := ApplyBudget(nil, 100, config.Retrieval{})
	assert.Empty(t, selected)
}
