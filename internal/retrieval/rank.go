package retrieval

import "github.com/standardbeagle/lci/internal/config"

// RankedResult is a FusedResult selected for inclusion within a token
// budget.
type RankedResult struct {
	FusedResult
	CumulativeTokens int // running token total including this result's header overhead
}

// ApplyBudget greedily selects fused results in rank order, stopping once
// adding the next result would exceed tokenBudget (spec §4.7: "given
// ranked results and a token budget, greedily select in order, stopping
// when adding the next chunk would exceed budget"). Each selected chunk
// costs its estimated token count plus a fixed per-chunk header overhead.
func ApplyBudget(results []FusedResult, tokenBudget int, cfg config.Retrieval) []RankedResult {
	if tokenBudget <= 0 {
		tokenBudget = 1 << 30
	}
	overhead := cfg.TokenBudgetHeaderOverhead
	if overhead < 0 {
		overhead = 0
	}

	var selected []RankedResult
	total := 0
	for _, r := range results {
		cost := r.Chunk.Tokens + overhead
		if total+cost > tokenBudget {
			break
		}
		total += cost
		selected = append(selected, RankedResult{FusedResult: r, CumulativeTokens: total})
	}
	return selected
}
