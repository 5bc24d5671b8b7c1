package searchplan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/types"
)

const (
	freeformBegin = "*** Begin Search"
	freeformEnd   = "*** End Search"
)

// jsonRequest mirrors the wire shape of a JSON search payload.
type jsonRequest struct {
	Query      string   `json:"query"`
	Profiles   []string `json:"profiles"`
	Limit      int      `json:"limit"`
	Language   string   `json:"language"`
	Category   string   `json:"category"`
	Owner      string   `json:"owner"`
	RecentOnly bool      `json:"recent_only"`
	WithRefs   bool      `json:"with_refs"`
	RefsLimit  int      `json:"refs_limit"`
}

// knownFreeformKeys bounds the freeform grammar's accepted keys (spec §6,
// SPEC_FULL §4 decision 3: "unknown keys are a parse error").
var knownFreeformKeys = map[string]bool{
	"query": true, "profiles": true, "limit": true, "language": true,
	"category": true, "owner": true, "recent_only": true, "with_refs": true,
	"refs_limit": true,
}

// PlanSearchRequest builds a typed SearchRequest from either a JSON
// payload or a freeform `*** Begin Search ... *** End Search` block (spec
// §4.8).
func PlanSearchRequest(raw string) (*types.SearchRequest, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		return planFromJSON(trimmed)
	}
	if strings.Contains(trimmed, freeformBegin) {
		return planFromFreeform(trimmed)
	}
	// A bare query string with no envelope is still a valid request.
	return &types.SearchRequest{Query: trimmed, Filters: map[string]string{}}, nil
}

func planFromJSON(raw string) (*types.SearchRequest, error) {
	var jr jsonRequest
	if err := json.Unmarshal([]byte(raw), &jr); err != nil {
		return nil, errors.NewSearchError("plan_search_request_json", err)
	}
	req := &types.SearchRequest{
		Query:      jr.Query,
		Limit:      jr.Limit,
		Language:   jr.Language,
		Category:   types.Category(jr.Category),
		Owner:      jr.Owner,
		RecentOnly: jr.RecentOnly,
		WithRefs:   jr.WithRefs,
		RefsLimit:  jr.RefsLimit,
		Filters:    map[string]string{},
	}
	for _, p := range jr.Profiles {
		req.Profiles = append(req.Profiles, types.Profile(p))
	}
	return req, nil
}

// planFromFreeform parses the body between the begin/end markers as a set
// of key:value or key=value lines (both separators accepted per SPEC_FULL
// §4 decision 3). Values may be comma-separated lists or quoted strings.
func planFromFreeform(raw string) (*types.SearchRequest, error) {
	begin := strings.Index(raw, freeformBegin)
	end := strings.Index(raw, freeformEnd)
	if begin < 0 || end < 0 || end < begin {
		return nil, errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("missing begin/end search markers"))
	}
	body := raw[begin+len(freeformBegin) : end]

	req := &types.SearchRequest{Filters: map[string]string{}}
	lines := strings.Split(body, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, err := splitKeyValue(line)
		if err != nil {
			return nil, err
		}
		if !knownFreeformKeys[key] {
			return nil, errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("unknown key %q", key))
		}
		if err := applyFreeformField(req, key, value); err != nil {
			return nil, err
		}
	}
	if req.Query == "" {
		return nil, errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("missing required key \"query\""))
	}
	return req, nil
}

func splitKeyValue(line string) (string, string, error) {
	idx := strings.IndexAny(line, ":=")
	if idx < 0 {
		return "", "", errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("malformed line %q", line))
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	value = strings.Trim(value, `"'`)
	return key, value, nil
}

func applyFreeformField(req *types.SearchRequest, key, value string) error {
	switch key {
	case "query":
		req.Query = value
	case "profiles":
		for _, p := range splitList(value) {
			req.Profiles = append(req.Profiles, types.Profile(strings.ToLower(p)))
		}
	case "limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("limit must be an integer, got %q", value))
		}
		req.Limit = n
	case "language":
		req.Language = value
	case "category":
		req.Category = types.Category(value)
	case "owner":
		req.Owner = value
	case "recent_only":
		req.RecentOnly = parseBool(value)
	case "with_refs":
		req.WithRefs = parseBool(value)
	case "refs_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.NewSearchError("plan_search_request_freeform", fmt.Errorf("refs_limit must be an integer, got %q", value))
		}
		req.RefsLimit = n
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
