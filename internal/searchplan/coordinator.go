package searchplan

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

// Execute runs the full search pipeline against snap: resolve
// profile-effective filters, rank candidates, decide on facet
// suggestions and an auto-facet follow-up, populate references, and
// assemble the response (spec §4.8 steps 1-6).
func Execute(snap *types.Snapshot, req *types.SearchRequest, cfg *config.Config) *types.SearchResponse {
	start := time.Now()

	req.Profiles = InferProfiles(req.Query, req.Profiles)
	ApplyProfiles(req, cfg.Search)

	candidates := RankCandidates(snap, req, cfg.SemanticScoring, cfg.Search.Ranking)

	suggestions := SuggestFacets(snap, candidates, req, cfg.Search)

	hits := candidates
	if req.Limit > 0 && len(hits) > req.Limit {
		hits = hits[:req.Limit]
	}

	var autoFacetArgs *types.SearchRequest
	if len(suggestions) > 0 && (len(candidates) > req.Limit) {
		autoFacetArgs = AutoFacet(req, suggestions, cfg.Search)
	}

	var references map[string]types.ReferenceSet
	if req.WithRefs {
		references = PopulateReferences(snap, hits, req.RefsLimit)
	}

	resp := &types.SearchResponse{
		QueryID: uuid.NewString(),
		Hits:    hits,
		IndexStatus: types.IndexStatus{
			BuiltAt:     snap.BuiltAt.Format(time.RFC3339),
			FileCount:   len(snap.Files),
			SymbolCount: len(snap.Symbols),
		},
		Stats: types.SearchStats{
			CandidateCount: len(candidates),
			RankedCount:    len(hits),
			DurationMillis: time.Since(start).Milliseconds(),
		},
		ActiveFilters:    activeFilters(req),
		FacetSuggestions: suggestions,
		References:       references,
		AutoFacetArgs:    autoFacetArgs,
		Hints:            req.Hints,
	}
	return resp
}

func activeFilters(req *types.SearchRequest) map[string]string {
	out := map[string]string{}
	if req.Language != "" {
		out["language"] = req.Language
	}
	if req.Category != "" {
		out["category"] = string(req.Category)
	}
	if req.Owner != "" {
		out["owner"] = req.Owner
	}
	if req.RecentOnly {
		out["recent_only"] = "true"
	}
	return out
}

// StreamEvent is one NDJSON frame the daemon emits while executing a
// search (spec §4.8 "Streaming"): diagnostics, then an optional
// top_hits preview, then a final response or an error.
type StreamEvent struct {
	Event string
	Data  json.RawMessage
}

// Stream builds the ordered event sequence for resp: diagnostics, an
// optional top_hits preview capped at 5, and the final response.
func Stream(resp *types.SearchResponse) ([]StreamEvent, error) {
	var events []StreamEvent

	diag, err := json.Marshal(map[string]any{"diagnostics": resp.Diagnostics})
	if err != nil {
		return nil, err
	}
	events = append(events, StreamEvent{Event: "diagnostics", Data: diag})

	if len(resp.Hits) > 0 {
		top := resp.Hits
		if len(top) > 5 {
			top = top[:5]
		}
		topData, err := json.Marshal(map[string]any{"hits": top})
		if err != nil {
			return nil, err
		}
		events = append(events, StreamEvent{Event: "top_hits", Data: topData})
	}

	if resp.Error != "" {
		errData, err := json.Marshal(map[string]any{"message": resp.Error})
		if err != nil {
			return nil, err
		}
		events = append(events, StreamEvent{Event: "error", Data: errData})
		return events, nil
	}

	finalData, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	events = append(events, StreamEvent{Event: "final", Data: finalData})
	return events, nil
}
