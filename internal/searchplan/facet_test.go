package searchplan

import (
	"testing"

	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manyHitsSnapshot(n int) (*types.Snapshot, []types.Hit) {
	snap := types.NewSnapshot()
	var hits []types.Hit
	for i := 0; i < n; i++ {
		path := "pkg/file.go"
		snap.Files[path] = &types.FileEntry{Path: path, Language: types.LanguageGo, Owners: []string{"team-a"}}
		hits = append(hits, types.Hit{Path: path, Name: "X"})
	}
	return snap, hits
}

func TestSuggestFacets_ReturnsNoneBelowThreshold(t *testing.T) {
	snap, hits := manyHitsSnapshot(2)
	req := &types.SearchRequest{Limit: 100}
	cfg := testSearchConfig()
	suggestions := SuggestFacets(snap, hits, req, cfg)
	assert.Empty(t, suggestions)
}

func TestSuggestFacets_ReturnsLanguageAndOwnerAboveThreshold(t *testing.T) {
	snap, hits := manyHitsSnapshot(50)
	req := &types.SearchRequest{Limit: 10}
	cfg := testSearchConfig()
	suggestions := SuggestFacets(snap, hits, req, cfg)
	require.NotEmpty(t, suggestions)
	var kinds []string
	for _, s := range suggestions {
		kinds = append(kinds, s.Kind)
	}
	assert.Contains(t, kinds, "language")
	assert.Contains(t, kinds, "owner")
}

func TestAutoFacet_AppliesFirstUnusedSuggestion(t *testing.T) {
	req := &types.SearchRequest{Query: "x", Limit: 10}
	suggestions := []types.FacetSuggestion{{Kind: "language", Label: "language:go", Value: "go"}}
	follow := AutoFacet(req, suggestions, testSearchConfig())
	require.NotNil(t, follow)
	assert.Equal(t, "go", follow.Language)
	assert.Equal(t, 1, follow.AutoFacetDepth)
	assert.Contains(t, follow.Hints, "auto facet suggestion language:go")
}

func TestAutoFacet_StopsAtMaxDepth(t *testing.T) {
	cfg := testSearchConfig()
	req := &types.SearchRequest{Query: "x", AutoFacetDepth: cfg.AutoFacetMaxDepth}
	suggestions := []types.FacetSuggestion{{Kind: "language", Label: "language:go", Value: "go"}}
	follow := AutoFacet(req, suggestions, cfg)
	assert.Nil(t, follow)
}

func TestAutoFacet_SkipsAlreadyAppliedFacet(t *testing.T) {
	req := &types.SearchRequest{Query: "x", Language: "go"}
	suggestions := []types.FacetSuggestion{{Kind: "language", Label: "language:go", Value: "go"}}
	follow := AutoFacet(req, suggestions, testSearchConfig())
	assert.Nil(t, follow)
}
