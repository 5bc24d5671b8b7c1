package searchplan

import (
	"fmt"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

// SuggestFacets builds up to four facet suggestions (language, category,
// owner, recent) from the most common un-applied dimension among the
// candidate set, emitted when the candidate count exceeds the
// configured threshold or the limit is saturated (spec §4.8 step 3).
func SuggestFacets(snap *types.Snapshot, hits []types.Hit, req *types.SearchRequest, cfg config.Search) []types.FacetSuggestion {
	if len(hits) <= cfg.FacetSuggestionMin && len(hits) <= req.Limit {
		return nil
	}

	langCounts := map[string]int{}
	catCounts := map[types.Category]int{}
	ownerCounts := map[string]int{}
	recentCount := 0

	for _, h := range hits {
		entry := snap.Files[h.Path]
		if entry == nil {
			continue
		}
		if req.Language == "" {
			langCounts[string(entry.Language)]++
		}
		if req.Category == "" {
			for _, c := range entry.Categories {
				catCounts[c]++
			}
		}
		if req.Owner == "" {
			for _, o := range entry.Owners {
				ownerCounts[o]++
			}
		}
		if !req.RecentOnly && entry.Recent {
			recentCount++
		}
	}

	var suggestions []types.FacetSuggestion
	if lang, ok := topKey(langCounts); ok {
		suggestions = append(suggestions, types.FacetSuggestion{Kind: "language", Label: fmt.Sprintf("language:%s", lang), Value: lang})
	}
	if cat, ok := topCategoryKey(catCounts); ok {
		suggestions = append(suggestions, types.FacetSuggestion{Kind: "category", Label: fmt.Sprintf("category:%s", cat), Value: string(cat)})
	}
	if owner, ok := topKey(ownerCounts); ok {
		suggestions = append(suggestions, types.FacetSuggestion{Kind: "owner", Label: fmt.Sprintf("owner:%s", owner), Value: owner})
	}
	if recentCount > 0 {
		suggestions = append(suggestions, types.FacetSuggestion{Kind: "recent", Label: "recent:true", Value: "true"})
	}
	return suggestions
}

func topKey(counts map[string]int) (string, bool) {
	best, bestCount := "", 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount > 0
}

func topCategoryKey(counts map[types.Category]int) (types.Category, bool) {
	best, bestCount := types.Category(""), 0
	for k, c := range counts {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best, bestCount > 0
}

// AutoFacet builds a bounded follow-up request applying the first
// suggestion not already reflected in req, carrying an explanatory hint
// (spec §4.8 step 4). Returns nil once depth reaches cfg.AutoFacetMaxDepth
// or no suggestion remains to apply.
func AutoFacet(req *types.SearchRequest, suggestions []types.FacetSuggestion, cfg config.Search) *types.SearchRequest {
	maxDepth := cfg.AutoFacetMaxDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if req.AutoFacetDepth >= maxDepth {
		return nil
	}

	for _, s := range suggestions {
		if facetAlreadyApplied(req, s) {
			continue
		}
		follow := *req
		follow.Filters = cloneFilters(req.Filters)
		follow.AutoFacetDepth = req.AutoFacetDepth + 1
		follow.Hints = append(append([]string{}, req.Hints...), fmt.Sprintf("auto facet suggestion %s", s.Label))
		switch s.Kind {
		case "language":
			follow.Language = s.Value
		case "category":
			follow.Category = types.Category(s.Value)
		case "owner":
			follow.Owner = s.Value
		case "recent":
			follow.RecentOnly = true
		}
		return &follow
	}
	return nil
}

func facetAlreadyApplied(req *types.SearchRequest, s types.FacetSuggestion) bool {
	switch s.Kind {
	case "language":
		return req.Language == s.Value
	case "category":
		return string(req.Category) == s.Value
	case "owner":
		return req.Owner == s.Value
	case "recent":
		return req.RecentOnly
	}
	return false
}

func cloneFilters(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
