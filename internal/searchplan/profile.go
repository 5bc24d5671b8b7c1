// Package searchplan implements the search planner and executor
// (component C8): request parsing, profile inference, candidate ranking,
// facet suggestions, and response assembly.
package searchplan

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

var (
	symbolPunctuation = regexp.MustCompile(`::|->|[()<>]`)
	hasUpperNoSpace   = regexp.MustCompile(`^\S*[A-Z]\S*$`)
)

// InferProfiles derives the profile set implied by the query text alone
// (spec §4.8: "Profile inference from the query text"). Explicit profiles
// passed by the caller are appended after the inferred ones.
func InferProfiles(query string, explicit []types.Profile) []types.Profile {
	var inferred []types.Profile
	lower := strings.ToLower(query)

	if symbolPunctuation.MatchString(query) || (!strings.Contains(query, " ") && hasUpperNoSpace.MatchString(query)) {
		inferred = append(inferred, types.ProfileSymbols)
	}
	if strings.Contains(lower, "test") {
		inferred = append(inferred, types.ProfileTests)
	}
	if strings.Contains(lower, "docs/") || strings.Contains(lower, ".md") || strings.Contains(lower, "readme") {
		inferred = append(inferred, types.ProfileDocs)
	}
	if strings.Contains(lower, "cargo.toml") || strings.Contains(lower, "go.mod") || strings.Contains(lower, "package.json") {
		inferred = append(inferred, types.ProfileDeps)
	}
	if strings.Contains(lower, "recent") || strings.Contains(lower, "modified") {
		inferred = append(inferred, types.ProfileRecent)
	}
	if strings.Contains(lower, "ref") && strings.Contains(lower, "call") {
		inferred = append(inferred, types.ProfileReferences)
	}

	seen := make(map[types.Profile]bool, len(inferred)+len(explicit))
	var out []types.Profile
	for _, p := range append(inferred, explicit...) {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// ApplyProfiles tweaks req in place per each active profile, applied in
// order (spec §4.8): limit clamps, category forcing, recent_only, and
// with_refs.
func ApplyProfiles(req *types.SearchRequest, cfg config.Search) {
	for _, p := range req.Profiles {
		switch p {
		case types.ProfileFocused:
			req.Limit = clamp(req.Limit, cfg.FocusedLimitMin, cfg.FocusedLimitMax)
		case types.ProfileBroad:
			if req.Limit < cfg.BroadLimitMin {
				req.Limit = cfg.BroadLimitMin
			}
		case types.ProfileSymbols:
			if req.Limit <= 0 || req.Limit > cfg.SymbolsLimitMax {
				req.Limit = cfg.SymbolsLimitMax
			}
			req.WithRefs = true
		case types.ProfileTests:
			req.Category = types.CategoryTests
		case types.ProfileDocs:
			req.Category = types.CategoryDocs
		case types.ProfileDeps:
			req.Category = types.CategoryDeps
		case types.ProfileRecent:
			req.RecentOnly = true
		case types.ProfileReferences:
			req.WithRefs = true
		}
	}
	if req.Limit <= 0 {
		req.Limit = cfg.MaxResults
	}
	if req.RefsLimit <= 0 {
		req.RefsLimit = cfg.RefsLimitDefault
	}
}

func clamp(v, lo, hi int) int {
	if v <= 0 {
		return hi
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
