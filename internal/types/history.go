package types

import "time"

// HistoryHit is a captured search hit stored alongside a history entry,
// capped to the first 4 per entry (spec section 3).
type HistoryHit struct {
	Path string
	Line int
	Name string
}

// HistoryEntry records one search invocation for replay and pinning (spec
// section 4.11). RecordedQuery carries enough state to re-issue the same
// request; it is required for Pin to succeed.
type HistoryEntry struct {
	QueryID         string
	RecordedAt      time.Time
	ActiveFilters   map[string]string
	Hits            []HistoryHit
	RecordedQuery   *RecordedQuery
	FacetSuggestions []FacetSuggestion
	Pinned          bool
}

// RecordedQuery is the replayable form of a search request.
type RecordedQuery struct {
	Query       string
	Profiles    []string
	Limit       int
	WithRefs    bool
	Filters     map[string]string
}

// FacetSuggestion is a structured follow-up query a client can chain onto
// a previous query id (spec Glossary).
type FacetSuggestion struct {
	Kind  string // language | category | owner | recent
	Label string
	Value string
}

// DaemonMetadata is the on-disk record clients read to connect to a
// running navigator daemon (spec section 6).
type DaemonMetadata struct {
	ProtocolVersion int
	ProjectHash     string
	DefaultRoot     string
	Port            int
	Secret          string
	PID             int
	StartedAt       time.Time
}
