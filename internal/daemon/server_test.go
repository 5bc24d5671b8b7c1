package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))

	codexHome := t.TempDir()
	cfg := testConfig(t, root)

	d, err := New(cfg, codexHome)
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Shutdown(ctx)
	})

	base := fmt.Sprintf("http://127.0.0.1:%d", d.Port())
	return d, base
}

func TestDaemon_HealthIsUnauthenticated(t *testing.T) {
	_, base := startTestDaemon(t)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDaemon_RejectsMissingBearerToken(t *testing.T) {
	_, base := startTestDaemon(t)

	body := bytes.NewBufferString(`{"schema_version":1}`)
	resp, err := http.Post(base+"/v1/nav/atlas", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func authedPost(t *testing.T, d *Daemon, base, path string, payload []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+d.secret)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestDaemon_RejectsSchemaVersionMismatch(t *testing.T) {
	d, base := startTestDaemon(t)

	resp := authedPost(t, d, base, "/v1/nav/atlas", []byte(`{"schema_version":99}`))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDaemon_AtlasRoundTripsWithValidAuth(t *testing.T) {
	d, base := startTestDaemon(t)

	resp := authedPost(t, d, base, "/v1/nav/atlas", []byte(`{"schema_version":1}`))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDaemon_SearchStreamsNDJSON(t *testing.T) {
	d, base := startTestDaemon(t)

	payload, err := json.Marshal(searchRequestBody{SchemaVersion: 1, Query: "main"})
	require.NoError(t, err)

	resp := authedPost(t, d, base, "/v1/nav/search", payload)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)
	var events []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var ev struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		events = append(events, ev.Event)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, "diagnostics", events[0])
	assert.Contains(t, events, "final")
}

func TestDaemon_MetricsRequiresAuth(t *testing.T) {
	_, base := startTestDaemon(t)

	resp, err := http.Get(base + "/v1/nav/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
