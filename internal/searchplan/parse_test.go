package searchplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanSearchRequest_ParsesJSON(t *testing.T) {
	req, err := PlanSearchRequest(`{"query": "connect", "limit": 10, "with_refs": true}`)
	require.NoError(t, err)
	assert.Equal(t, "connect", req.Query)
	assert.Equal(t, 10, req.Limit)
	assert.True(t, req.WithRefs)
}

func TestPlanSearchRequest_ParsesFreeformColonSeparator(t *testing.T) {
	raw := "*** Begin Search\nquery: connect database\nlimit: 15\n*** End Search"
	req, err := PlanSearchRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "connect database", req.Query)
	assert.Equal(t, 15, req.Limit)
}

func TestPlanSearchRequest_ParsesFreeformEqualsSeparator(t *testing.T) {
	raw := "*** Begin Search\nquery = connect\nlanguage = rust\n*** End Search"
	req, err := PlanSearchRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "connect", req.Query)
	assert.Equal(t, "rust", req.Language)
}

func TestPlanSearchRequest_FreeformParsesCommaListAndQuotes(t *testing.T) {
	raw := "*** Begin Search\nquery: \"connect db\"\nprofiles: symbols, recent\n*** End Search"
	req, err := PlanSearchRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "connect db", req.Query)
	require.Len(t, req.Profiles, 2)
}

func TestPlanSearchRequest_FreeformRejectsUnknownKey(t *testing.T) {
	raw := "*** Begin Search\nquery: connect\nbogus: 1\n*** End Search"
	_, err := PlanSearchRequest(raw)
	assert.Error(t, err)
}

func TestPlanSearchRequest_FreeformRequiresQuery(t *testing.T) {
	raw := "*** Begin Search\nlimit: 10\n*** End Search"
	_, err := PlanSearchRequest(raw)
	assert.Error(t, err)
}

func TestPlanSearchRequest_BareStringBecomesQuery(t *testing.T) {
	req, err := PlanSearchRequest("connect database")
	require.NoError(t, err)
	assert.Equal(t, "connect database", req.Query)
}
