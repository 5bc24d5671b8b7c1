package retrieval

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_IsDeterministicAndNormalized(t *testing.T) {
	e := NewLocalEmbedder(32)
	v1, err := e.Embed(context.Background(), "fn add(a, b) { a + b }")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "fn add(a, b) { a + b }")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	var norm float64
	for _, x := range v1 {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestLocalEmbedder_DiffersForDifferentText(t *testing.T) {
	e := NewLocalEmbedder(32)
	v1, _ := e.Embed(context.Background(), "alpha")
	v2, _ := e.Embed(context.Background(), "beta")
	assert.NotEqual(t, v1, v2)
}

func TestLocalEmbedder_DefaultsDimensionWhenNonPositive(t *testing.T) {
	e := NewLocalEmbedder(0)
	assert.Equal(t, 384, e.Dimensions())
}

func TestLocalEmbedder_EmbedBatchMatchesIndividualEmbed(t *testing.T) {
	e := NewLocalEmbedder(16)
	texts := []string{"one", "two", "three"}
	batch, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for i, text := range texts {
		single, _ := e.Embed(context.Background(), text)
		assert.Equal(t, single, batch[i])
	}
}
