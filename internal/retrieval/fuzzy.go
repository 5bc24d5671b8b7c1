package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/surgebase/porter2"
)

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// stemTokens lowercases, splits on word boundaries, and stems each token,
// matching the teacher's stemming-matcher idiom (porter2.Stem over a
// split word list).
func stemTokens(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		out = append(out, porter2.Stem(w))
	}
	return out
}

// trigrams returns the set of 3-character substrings of s (lowercased,
// whitespace-collapsed), used as a cheap fallback signal when stemmed
// tokens don't overlap (e.g. partial identifiers, typos).
func trigrams(s string) map[string]bool {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	set := make(map[string]bool)
	for i := 0; i+3 <= len(s); i++ {
		set[s[i:i+3]] = true
	}
	return set
}

// FuzzySearch scores each chunk against query by stemmed-token overlap
// (weighted) plus trigram overlap (tie-breaker signal), returning results
// sorted descending by score with 0-based ranks assigned (spec §4.7's
// "fuzzy (token/trigram) result list").
func FuzzySearch(chunks []Chunk, query string) []SourceResult {
	queryStems := make(map[string]bool)
	for _, s := range stemTokens(query) {
		queryStems[s] = true
	}
	queryTrigrams := trigrams(query)

	var results []SourceResult
	for _, c := range chunks {
		stems := stemTokens(c.Content)
		stemSet := make(map[string]bool, len(stems))
		for _, s := range stems {
			stemSet[s] = true
		}
		stemHits := 0
		for qs := range queryStems {
			if stemSet[qs] {
				stemHits++
			}
		}
		if len(queryStems) == 0 {
			continue
		}
		stemScore := float64(stemHits) / float64(len(queryStems))

		chunkTrigrams := trigrams(c.Content)
		triHits := 0
		for t := range queryTrigrams {
			if chunkTrigrams[t] {
				triHits++
			}
		}
		triScore := 0.0
		if len(queryTrigrams) > 0 {
			triScore = float64(triHits) / float64(len(queryTrigrams))
		}

		score := 0.8*stemScore + 0.2*triScore
		if score <= 0 {
			continue
		}
		results = append(results, SourceResult{
			Key:   chunkKey(c.Path, c.StartLine, c.EndLine),
			Chunk: c,
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	for i := range results {
		results[i].Rank = i
	}
	return results
}
