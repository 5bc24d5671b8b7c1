package searchplan

import (
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestInferProfiles_SymbolSyntaxTriggersSymbols(t *testing.T) {
	profiles := InferProfiles("Widget::render", nil)
	assert.Contains(t, profiles, types.ProfileSymbols)
}

func TestInferProfiles_SingleCapitalizedTokenTriggersSymbols(t *testing.T) {
	profiles := InferProfiles("HttpClient", nil)
	assert.Contains(t, profiles, types.ProfileSymbols)
}

func TestInferProfiles_TestKeywordTriggersTests(t *testing.T) {
	profiles := InferProfiles("flaky test for parser", nil)
	assert.Contains(t, profiles, types.ProfileTests)
}

func TestInferProfiles_ReadmeTriggersDocs(t *testing.T) {
	profiles := InferProfiles("update the README", nil)
	assert.Contains(t, profiles, types.ProfileDocs)
}

func TestInferProfiles_DedupsExplicitAndInferred(t *testing.T) {
	profiles := InferProfiles("HttpClient", []types.Profile{types.ProfileSymbols})
	count := 0
	for _, p := range profiles {
		if p == types.ProfileSymbols {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func testSearchConfig() config.Search {
	return config.Search{
		MaxResults:       100,
		AutoFacetMaxDepth: 2,
		FacetSuggestionMin: 40,
		FocusedLimitMin:  5,
		FocusedLimitMax:  25,
		BroadLimitMin:    80,
		SymbolsLimitMax:  40,
		RefsLimitDefault: 12,
	}
}

func TestApplyProfiles_FocusedClampsLimit(t *testing.T) {
	req := &types.SearchRequest{Profiles: []types.Profile{types.ProfileFocused}, Limit: 1000}
	ApplyProfiles(req, testSearchConfig())
	assert.Equal(t, 25, req.Limit)
}

func TestApplyProfiles_SymbolsForcesRefsAndCap(t *testing.T) {
	req := &types.SearchRequest{Profiles: []types.Profile{types.ProfileSymbols}, Limit: 1000}
	ApplyProfiles(req, testSearchConfig())
	assert.Equal(t, 40, req.Limit)
	assert.True(t, req.WithRefs)
}

func TestApplyProfiles_TestsForcesCategory(t *testing.T) {
	req := &types.SearchRequest{Profiles: []types.Profile{types.ProfileTests}}
	ApplyProfiles(req, testSearchConfig())
	assert.Equal(t, types.CategoryTests, req.Category)
}

func TestApplyProfiles_DefaultsLimitWhenUnset(t *testing.T) {
	req := &types.SearchRequest{}
	ApplyProfiles(req, testSearchConfig())
	assert.Equal(t, 100, req.Limit)
	assert.Equal(t, 12, req.RefsLimit)
}
