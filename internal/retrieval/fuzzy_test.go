package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuzzySearch_RanksStemmedTokenOverlapFirst(t *testing.T) {
	chunks := []Chunk{
		{Path: "a.go", StartLine: 1, EndLine: 3, Content: "func connectDatabase() error { return dial() }"},
		{Path: "b.go", StartLine: 1, EndLine: 3, Content: "func renderTemplate() string { return \"\" }"},
	}
	results := FuzzySearch(chunks, "connecting to the database")
	require.NotEmpty(t, results)
	assert.Equal(t, "a.go:1:3", results[0].Key)
	assert.Equal(t, 0, results[0].Rank)
}

func TestFuzzySearch_NoOverlapYieldsNoResults(t *testing.T) {
	chunks := []Chunk{
		{Path: "a.go", StartLine: 1, EndLine: 3, Content: "func add(a, b int) int { return a + b }"},
	}
	results := FuzzySearch(chunks, "zzz qqq xyz")
	assert.Empty(t, results)
}

func TestFuzzySearch_EmptyQueryYieldsNoResults(t *testing.T) {
	chunks := []Chunk{{Path: "a.go", Content: "func add() {}"}}
	results := FuzzySearch(chunks, "")
	assert.Empty(t, results)
}
