package searchplan

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/indexer"
	"github.com/standardbeagle/lci/internal/types"
)

// docExtensions demote documentation files in file-type scoring; code
// files get the code boost, everything else gets the config boost or
// nothing (grounded on the teacher's classifyFile/scoreFileType split).
var docExtensions = map[string]bool{
	".md": true, ".markdown": true, ".txt": true, ".rst": true, ".adoc": true,
}
var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true,
	".cfg": true, ".xml": true, ".kdl": true,
}

// scoreFileType mirrors the teacher's search engine's file-category boost
// (internal/search/engine.go scoreFileType), applied to a candidate's
// owning path.
func scoreFileType(path string, ranking config.SearchRanking) float64 {
	ext := strings.ToLower(filepath.Ext(path))
	if w, ok := ranking.ExtensionWeights[ext]; ok {
		return w
	}
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, "_test.") || strings.Contains(base, ".test.") || strings.HasPrefix(base, "test_") {
		return ranking.CodeFileBoost * 0.8
	}
	if docExtensions[ext] {
		return ranking.DocFilePenalty
	}
	if configExtensions[ext] {
		return ranking.ConfigFileBoost
	}
	return ranking.CodeFileBoost
}

// matchQuality scores how well name matches query: exact, substring, or a
// stemmed-token overlap fallback, weighted per config.SemanticScoring
// (spec §4.8: "boost exact symbol matches, partial matches... include
// fuzzy scoring where needed").
func matchQuality(query, name string, scoring config.SemanticScoring) (float64, string) {
	if query == "" {
		return 0, ""
	}
	queryLower := strings.ToLower(query)
	nameLower := strings.ToLower(name)
	if queryLower == nameLower {
		return scoring.ExactWeight, "exact match"
	}
	if strings.Contains(nameLower, queryLower) {
		return scoring.SubstringWeight, "substring match"
	}
	queryTokens := indexer.Tokenize(query)
	nameTokens := indexer.Tokenize(name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0, ""
	}
	nameSet := make(map[string]bool, len(nameTokens))
	for _, t := range nameTokens {
		nameSet[t] = true
	}
	hits := 0
	for _, t := range queryTokens {
		if nameSet[t] {
			hits++
		}
	}
	if hits == 0 {
		return 0, ""
	}
	return scoring.FuzzyWeight * float64(hits) / float64(len(queryTokens)), "fuzzy token overlap"
}

// passesHardFilters applies the request's language/category/owner/recent
// filters as exclusions rather than score adjustments, matching the
// coordinator's "resolve profile-effective filters" step.
func passesHardFilters(entry *types.FileEntry, req *types.SearchRequest) bool {
	if req.Language != "" && string(entry.Language) != req.Language {
		return false
	}
	if req.Category != "" {
		found := false
		for _, c := range entry.Categories {
			if c == req.Category {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if req.RecentOnly && !entry.Recent {
		return false
	}
	if req.Owner != "" {
		found := false
		for _, o := range entry.Owners {
			if o == req.Owner {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RankCandidates scores every symbol whose owning file passes the
// request's hard filters, combining match quality, file-type boost, and
// an owner/recent nudge, and returns candidates sorted by score
// descending (spec §4.8 step 2).
func RankCandidates(snap *types.Snapshot, req *types.SearchRequest, scoring config.SemanticScoring, ranking config.SearchRanking) []types.Hit {
	var hits []types.Hit
	for _, sym := range snap.Symbols {
		entry := snap.Files[sym.Path]
		if entry == nil || !passesHardFilters(entry, req) {
			continue
		}
		quality, reason := matchQuality(req.Query, sym.Name(), scoring)
		if quality <= 0 {
			continue
		}
		score := quality + scoreFileType(sym.Path, ranking)
		var reasons []string
		if reason != "" {
			reasons = append(reasons, reason)
		}
		if entry.Recent {
			score += 5
			reasons = append(reasons, "recent file")
		}
		if req.Owner != "" {
			score += 5
			reasons = append(reasons, "owner match")
		}
		hits = append(hits, types.Hit{
			Path:       sym.Path,
			Line:       sym.Range.StartLine,
			Name:       sym.Name(),
			Kind:       sym.Kind,
			SymbolPath: sym.SymbolPath,
			Score:      score,
			Preview:    sym.Preview,
			Reasons:    reasons,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Path != hits[j].Path {
			return hits[i].Path < hits[j].Path
		}
		return hits[i].Line < hits[j].Line
	})
	return hits
}
