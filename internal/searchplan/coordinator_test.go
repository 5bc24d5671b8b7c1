package searchplan

import (
	"testing"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Search:          testSearchConfig(),
		SemanticScoring: testScoring(),
	}
}

func TestExecute_AssemblesResponseWithQueryID(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "ConnectDatabase"}
	resp := Execute(snap, req, testConfig())
	require.NotEmpty(t, resp.QueryID)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, len(resp.Hits), resp.Stats.RankedCount)
}

func TestExecute_WithRefsPopulatesReferenceSet(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "ConnectDatabase", WithRefs: true}
	resp := Execute(snap, req, testConfig())
	require.NotEmpty(t, resp.Hits)
	_, ok := resp.References[resp.Hits[0].Path+":3"]
	assert.True(t, ok)
}

func TestStream_EmitsDiagnosticsThenFinal(t *testing.T) {
	snap := buildSnapshot()
	req := &types.SearchRequest{Query: "ConnectDatabase"}
	resp := Execute(snap, req, testConfig())
	events, err := Stream(resp)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "diagnostics", events[0].Event)
	assert.Equal(t, "final", events[len(events)-1].Event)
}

func TestStream_ErrorReplacesFinal(t *testing.T) {
	resp := &types.SearchResponse{QueryID: "q1", Error: "boom"}
	events, err := Stream(resp)
	require.NoError(t, err)
	assert.Equal(t, "error", events[len(events)-1].Event)
}
