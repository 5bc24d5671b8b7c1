package daemon

import "github.com/standardbeagle/lci/internal/types"

// schemaVersion is the protocol version this daemon build speaks. Clients
// send it on every request but /health; a mismatch is a 400, not a
// negotiation (spec section 4.9).
const schemaVersion = 1

// searchRequestBody is the wire shape of POST /v1/nav/search, mirroring
// spec section 6's field list.
type searchRequestBody struct {
	SchemaVersion   int               `json:"schema_version"`
	ProjectRoot     string            `json:"project_root,omitempty"`
	Query           string            `json:"query,omitempty"`
	Filters         map[string]string `json:"filters,omitempty"`
	Limit           int               `json:"limit,omitempty"`
	WithRefs        bool              `json:"with_refs,omitempty"`
	RefsLimit       int               `json:"refs_limit,omitempty"`
	Profiles        []string          `json:"profiles,omitempty"`
	Refine          string            `json:"refine,omitempty"` // query_id (UUID) to refine
	InheritFilters  bool              `json:"inherit_filters,omitempty"`
	FilterOps       []string          `json:"filter_ops,omitempty"`
	InputFormat     string            `json:"input_format,omitempty"` // json | freeform
	Freeform        string            `json:"freeform,omitempty"`
}

type openRequestBody struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectRoot   string `json:"project_root,omitempty"`
	Path          string `json:"path"`
	StartLine     int    `json:"start_line,omitempty"`
	EndLine       int    `json:"end_line,omitempty"`
}

type openResponseBody struct {
	Path  string   `json:"path"`
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

type snippetRequestBody struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectRoot   string `json:"project_root,omitempty"`
	Path          string `json:"path"`
	Line          int    `json:"line"`
	Before        int    `json:"before,omitempty"`
	After         int    `json:"after,omitempty"`
}

type snippetResponseBody struct {
	Path    string   `json:"path"`
	Line    int      `json:"line"`
	Excerpt []string `json:"excerpt"`
	Error   string   `json:"error,omitempty"`
}

type atlasRequestBody struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectRoot   string `json:"project_root,omitempty"`
}

type profileRequestBody struct {
	SchemaVersion int      `json:"schema_version"`
	ProjectRoot   string   `json:"project_root,omitempty"`
	Query         string   `json:"query"`
	Profiles      []string `json:"profiles,omitempty"`
}

type profileResponseBody struct {
	Request *types.SearchRequest `json:"effective_request"`
	Error   string                `json:"error,omitempty"`
}

type insightsRequestBody struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectRoot   string `json:"project_root,omitempty"`
}

type insightsResponseBody struct {
	Risk          string   `json:"risk"`
	QueryCount    int64    `json:"query_count"`
	FallbackCount int64    `json:"fallback_count"`
	MedianScanMs  float64  `json:"median_scan_ms"`
	RecentQueries []string `json:"recent_queries,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type reindexRequestBody struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectRoot   string `json:"project_root,omitempty"`
	Full          bool   `json:"full,omitempty"`
}

type reindexResponseBody struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

type settingsRequestBody struct {
	SchemaVersion     int    `json:"schema_version"`
	ProjectRoot       string `json:"project_root,omitempty"`
	AutoFacetMaxDepth *int   `json:"auto_facet_max_depth,omitempty"`
}

type settingsResponseBody struct {
	AutoFacetMaxDepth int    `json:"auto_facet_max_depth"`
	Error             string `json:"error,omitempty"`
}

type doctorResponseBody struct {
	Risk          string `json:"risk"`
	EverBuilt     bool   `json:"ever_built"`
	LastIngestAgo string `json:"last_ingest_ago,omitempty"`
	QueryCount    int64  `json:"query_count"`
	FallbackCount int64  `json:"fallback_count"`
	Workspaces    int    `json:"workspaces"`
}

type healthResponseBody struct {
	Status  string `json:"status"`
	Uptime  float64 `json:"uptime_seconds"`
}

type errorBody struct {
	Error string `json:"error"`
}
