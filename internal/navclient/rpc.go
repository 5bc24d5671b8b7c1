package navclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/standardbeagle/lci/internal/types"
)

const schemaVersion = 1

// SearchRequest mirrors the daemon's wire request for POST /v1/nav/search.
type SearchRequest struct {
	Query      string            `json:"query,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	WithRefs   bool              `json:"with_refs,omitempty"`
	RefsLimit  int               `json:"refs_limit,omitempty"`
	Profiles   []string          `json:"profiles,omitempty"`
	Refine     string            `json:"refine,omitempty"`
	Freeform   string            `json:"freeform,omitempty"`
}

// StreamEvent is one decoded NDJSON frame from a streaming search.
type StreamEvent struct {
	Event string
	Data  json.RawMessage
}

func (c *Client) do(ctx context.Context, path string, payload map[string]any) (*http.Response, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["schema_version"] = schemaVersion
	if _, ok := payload["project_root"]; !ok && c.projectRoot != "" {
		payload["project_root"] = c.projectRoot
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error == "" {
			errBody.Error = resp.Status
		}
		return nil, fmt.Errorf("%s: %s", path, errBody.Error)
	}
	return resp, nil
}

// Search runs a search and returns the decoded final response, discarding
// the intermediate streamed events. Use SearchWithEventHandler to observe
// them.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*types.SearchResponse, error) {
	var final *types.SearchResponse
	err := c.SearchWithEventHandler(ctx, req, func(ev StreamEvent) error {
		if ev.Event == "final" {
			var resp types.SearchResponse
			if err := json.Unmarshal(ev.Data, &resp); err != nil {
				return err
			}
			final = &resp
		}
		if ev.Event == "error" {
			var body struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(ev.Data, &body)
			return fmt.Errorf("search: %s", body.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// SearchWithEventHandler streams a search's NDJSON response, invoking
// onEvent for each frame in order (diagnostics, top_hits?, final|error —
// spec section 4.10/5). Returning an error from onEvent aborts the scan.
func (c *Client) SearchWithEventHandler(ctx context.Context, req SearchRequest, onEvent func(StreamEvent) error) error {
	payload, err := toPayload(req)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "/v1/nav/search", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(line, &frame); err != nil {
			return fmt.Errorf("parse ndjson frame: %w", err)
		}
		if err := onEvent(StreamEvent{Event: frame.Event, Data: frame.Data}); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Open retrieves a line range from an indexed file.
func (c *Client) Open(ctx context.Context, path string, startLine, endLine int) ([]string, error) {
	resp, err := c.do(ctx, "/v1/nav/open", map[string]any{
		"path": path, "start_line": startLine, "end_line": endLine,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var body struct {
		Lines []string `json:"lines"`
		Error string   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, fmt.Errorf("open: %s", body.Error)
	}
	return body.Lines, nil
}

// Snippet retrieves a context excerpt around a line.
func (c *Client) Snippet(ctx context.Context, path string, line, before, after int) ([]string, error) {
	resp, err := c.do(ctx, "/v1/nav/snippet", map[string]any{
		"path": path, "line": line, "before": before, "after": after,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var body struct {
		Excerpt []string `json:"excerpt"`
		Error   string   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, fmt.Errorf("snippet: %s", body.Error)
	}
	return body.Excerpt, nil
}

// Atlas retrieves the project atlas snapshot.
func (c *Client) Atlas(ctx context.Context) (*types.AtlasSnapshot, error) {
	resp, err := c.do(ctx, "/v1/nav/atlas", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var atlas types.AtlasSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&atlas); err != nil {
		return nil, err
	}
	return &atlas, nil
}

// InsightsResult is the decoded body of GET-style POST /v1/nav/insights.
type InsightsResult struct {
	Risk          string   `json:"risk"`
	QueryCount    int64    `json:"query_count"`
	FallbackCount int64    `json:"fallback_count"`
	MedianScanMs  float64  `json:"median_scan_ms"`
	RecentQueries []string `json:"recent_queries"`
}

// Insights retrieves the workspace's health/telemetry summary.
func (c *Client) Insights(ctx context.Context) (*InsightsResult, error) {
	resp, err := c.do(ctx, "/v1/nav/insights", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out InsightsResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DoctorResult is the decoded body of POST /v1/nav/doctor.
type DoctorResult struct {
	Risk          string `json:"risk"`
	EverBuilt     bool   `json:"ever_built"`
	LastIngestAgo string `json:"last_ingest_ago"`
	QueryCount    int64  `json:"query_count"`
	FallbackCount int64  `json:"fallback_count"`
	Workspaces    int    `json:"workspaces"`
}

// Doctor retrieves a daemon-wide diagnostic summary.
func (c *Client) Doctor(ctx context.Context) (*DoctorResult, error) {
	resp, err := c.do(ctx, "/v1/nav/doctor", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out DoctorResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reindex triggers a background rebuild, full or incremental.
func (c *Client) Reindex(ctx context.Context, full bool) error {
	resp, err := c.do(ctx, "/v1/nav/reindex", map[string]any{"full": full})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// SetAutoFacetMaxDepth overrides the workspace's auto-facet depth cap and
// returns the cap now in effect. A negative depth sends no override, so
// the call only reads the current cap.
func (c *Client) SetAutoFacetMaxDepth(ctx context.Context, depth int) (int, error) {
	payload := map[string]any{}
	if depth >= 0 {
		payload["auto_facet_max_depth"] = depth
	}
	resp, err := c.do(ctx, "/v1/nav/settings", payload)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var body struct {
		AutoFacetMaxDepth int `json:"auto_facet_max_depth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.AutoFacetMaxDepth, nil
}

func toPayload(req SearchRequest) (map[string]any, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
