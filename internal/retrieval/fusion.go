package retrieval

import (
	"fmt"
	"sort"

	"github.com/standardbeagle/lci/internal/config"
)

// FusionStrategy selects how hybrid fusion combines a fuzzy and a
// semantic result list (spec §4.7).
type FusionStrategy string

const (
	FusionReciprocalRank FusionStrategy = "reciprocal_rank"
	FusionWeightedScore  FusionStrategy = "weighted_score"
	FusionMaxScore       FusionStrategy = "max_score"
	FusionSemanticOnly   FusionStrategy = "semantic_only"
	FusionFuzzyOnly      FusionStrategy = "fuzzy_only"
)

// SourceResult is one candidate from a single retrieval source (the fuzzy
// token/trigram search or the semantic vector search), already sorted and
// ranked within that source.
type SourceResult struct {
	Key   string // "path:start:end"
	Chunk Chunk
	Score float64
	Rank  int // 0-based rank within this source's own ordering
}

// FusedResult is a deduplicated, re-ranked candidate after fusion.
type FusedResult struct {
	Key   string
	Chunk Chunk
	Score float64
	Rank  int // 1-based, assigned after sorting
}

func chunkKey(path string, start, end int) string {
	return fmt.Sprintf("%s:%d:%d", path, start, end)
}

// Fuse combines fuzzy and semantic result lists per cfg.FusionStrategy,
// sorts by score descending, and truncates to finalCount, assigning final
// 1-based ranks (spec §4.7).
func Fuse(fuzzy, semantic []SourceResult, cfg config.Retrieval, finalCount int) []FusedResult {
	strategy := FusionStrategy(cfg.FusionStrategy)
	semW, fuzzW := cfg.FusionSemanticWeight, cfg.FusionFuzzyWeight
	k := cfg.FusionReciprocalK
	if k <= 0 {
		k = 60
	}

	type acc struct {
		chunk Chunk
		score float64
	}
	merged := make(map[string]*acc)
	ensure := func(key string, chunk Chunk) *acc {
		if a, ok := merged[key]; ok {
			return a
		}
		a := &acc{chunk: chunk}
		merged[key] = a
		return a
	}

	switch strategy {
	case FusionSemanticOnly:
		for _, r := range semantic {
			ensure(r.Key, r.Chunk).score = r.Score
		}
	case FusionFuzzyOnly:
		for _, r := range fuzzy {
			ensure(r.Key, r.Chunk).score = r.Score
		}
	case FusionReciprocalRank:
		for _, r := range fuzzy {
			ensure(r.Key, r.Chunk).score += fuzzW * (1.0 / (k + float64(r.Rank) + 1))
		}
		for _, r := range semantic {
			ensure(r.Key, r.Chunk).score += semW * (1.0 / (k + float64(r.Rank) + 1))
		}
	case FusionMaxScore:
		fuzzNorm := normalize(fuzzy)
		semNorm := normalize(semantic)
		for i, r := range fuzzy {
			a := ensure(r.Key, r.Chunk)
			if fuzzNorm[i] > a.score {
				a.score = fuzzNorm[i]
			}
		}
		for i, r := range semantic {
			a := ensure(r.Key, r.Chunk)
			if semNorm[i] > a.score {
				a.score = semNorm[i]
			}
		}
	case FusionWeightedScore:
		fallthrough
	default:
		fuzzNorm := normalize(fuzzy)
		semNorm := normalize(semantic)
		for i, r := range fuzzy {
			ensure(r.Key, r.Chunk).score += fuzzW * fuzzNorm[i]
		}
		for i, r := range semantic {
			ensure(r.Key, r.Chunk).score += semW * semNorm[i]
		}
	}

	results := make([]FusedResult, 0, len(merged))
	for key, a := range merged {
		results = append(results, FusedResult{Key: key, Chunk: a.chunk, Score: a.score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Key < results[j].Key
	})
	if finalCount > 0 && len(results) > finalCount {
		results = results[:finalCount]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// normalize scales each result's Score into [0,1] by the list's own max,
// preserving input order (spec §4.7 WeightedScore: "normalized score sum").
func normalize(results []SourceResult) []float64 {
	out := make([]float64, len(results))
	max := 0.0
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	if max == 0 {
		return out
	}
	for i, r := range results {
		out[i] = r.Score / max
	}
	return out
}
