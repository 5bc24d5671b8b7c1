package searchplan

import (
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScoring() config.SemanticScoring {
	return config.SemanticScoring{ExactWeight: 1.0, SubstringWeight: 0.9, FuzzyWeight: 0.7}
}

func testRanking() config.SearchRanking {
	return config.SearchRanking{CodeFileBoost: 50, DocFilePenalty: -20, ConfigFileBoost: 10}
}

func buildSnapshot() *types.Snapshot {
	snap := types.NewSnapshot()
	snap.Files["a.go"] = &types.FileEntry{Path: "a.go", Language: types.LanguageGo, Categories: []types.Category{types.CategorySource}}
	snap.Files["b_test.go"] = &types.FileEntry{Path: "b_test.go", Language: types.LanguageGo, Categories: []types.Category{types.CategoryTests}, Recent: true}
	snap.Symbols[1] = &types.SymbolRecord{ID: 1, Kind: types.KindFunction, Language: types.LanguageGo, Path: "a.go", SymbolPath: types.SymbolPath{"ConnectDatabase"}, Range: types.Range{StartLine: 3, EndLine: 10}, Preview: "func ConnectDatabase()"}
	snap.Symbols[2] = &types.SymbolRecord{ID: 2, Kind: types.KindFunction, Language: types.LanguageGo, Path: "b_test.go", SymbolPath: types.SymbolPath{"TestConnect"}, Range: types.Range{StartLine: 1, EndLine: 5}}
	snap.AddToken("connectdatabase", "a.go")
	return snap
}

func TestRankCandidates_ExactMatchOutranksFuzzy(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "ConnectDatabase"}
	hits := RankCandidates(snap, req, testScoring(), testRanking())
	require.NotEmpty(t, hits)
	assert.Equal(t, "ConnectDatabase", hits[0].Name)
}

func TestRankCandidates_LanguageFilterExcludesOthers(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "Connect", Language: "rust"}
	hits := RankCandidates(snap, req, testScoring(), testRanking())
	assert.Empty(t, hits)
}

func TestRankCandidates_CategoryFilterKeepsOnlyMatching(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "Connect", Category: types.CategoryTests}
	hits := RankCandidates(snap, req, testScoring(), testRanking())
	for _, h := range hits {
		assert.Equal(t, "b_test.go", h.Path)
	}
}

func TestRankCandidates_EmptyQueryYieldsNoHits(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: ""}
	hits := RankCandidates(snap, req, testScoring(), testRanking())
	assert.Empty(t, hits)
}
