package retrieval

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates fixed-dimension vectors for text, matching the
// codenerd embedding package's EmbeddingEngine interface shape (Embed,
// EmbedBatch, Dimensions, Name) so a future network-backed engine (Ollama,
// a cloud embedding API) can be swapped in without touching the pipeline.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// localEmbedder is a deterministic, dependency-free embedding engine:
// each dimension is an FNV hash of the text salted by dimension index,
// folded into [-1, 1] and L2-normalized. It needs no network access and
// is initialized once per process (spec §4.7 "initialized once per
// process"), matching the teacher-adjacent engine.go factory contract
// while requiring no external model.
type localEmbedder struct {
	dim int
}

// NewLocalEmbedder constructs the default embedding engine for dim
// dimensions (spec default 384, configurable via config.Retrieval).
func NewLocalEmbedder(dim int) Embedder {
	if dim <= 0 {
		dim = 384
	}
	return &localEmbedder{dim: dim}
}

func (e *localEmbedder) Dimensions() int { return e.dim }
func (e *localEmbedder) Name() string    { return "local-fnv" }

func (e *localEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	var norm float64
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte{byte(i), byte(i >> 8)})
		h.Write([]byte(text))
		v := float64(h.Sum64()%2000001)/1000000.0 - 1.0
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

func (e *localEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
