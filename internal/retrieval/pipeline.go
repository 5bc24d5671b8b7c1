package retrieval

import (
	"context"

	"github.com/standardbeagle/lci/internal/config"
	"github.com/standardbeagle/lci/internal/types"
)

// Pipeline wires the chunker, embedder, vector store, hybrid fusion, and
// budget-aware ranker into the single entry point a conversation turn
// calls for grounding context (spec §4.7).
type Pipeline struct {
	embedder Embedder
	store    *VectorStore
	cfg      config.Retrieval
}

// NewPipeline constructs a retrieval pipeline over an already-open store.
func NewPipeline(embedder Embedder, store *VectorStore, cfg config.Retrieval) *Pipeline {
	return &Pipeline{embedder: embedder, store: store, cfg: cfg}
}

// IndexFile chunks content, embeds every chunk, and upserts each into the
// vector store, keyed by (path, start_line, end_line).
func (p *Pipeline) IndexFile(ctx context.Context, path, content string, lang types.Language) error {
	chunks := ChunkContent(path, content, lang, p.cfg)
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vecs, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	for i, c := range chunks {
		if _, err := p.store.Upsert(c, vecs[i], p.embedder.Name()); err != nil {
			return err
		}
	}
	return nil
}

// Query embeds query, runs semantic k-NN search and a fuzzy token/trigram
// pass over every stored chunk, fuses the two result lists per
// cfg.FusionStrategy, and greedily selects results within tokenBudget.
// semanticLimit bounds how many nearest neighbors are fetched before
// fusion; finalCount bounds the fused list before ranking.
func (p *Pipeline) Query(ctx context.Context, query string, semanticLimit, finalCount, tokenBudget int) ([]RankedResult, error) {
	queryVec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	stored, err := p.store.Search(queryVec, semanticLimit)
	if err != nil {
		return nil, err
	}
	semantic := make([]SourceResult, len(stored))
	for i, sc := range stored {
		semantic[i] = SourceResult{
			Key:   chunkKey(sc.Path, sc.StartLine, sc.EndLine),
			Chunk: sc.Chunk,
			Score: sc.Score,
			Rank:  i,
		}
	}

	all, err := p.store.AllChunks()
	if err != nil {
		return nil, err
	}
	fuzzy := FuzzySearch(all, query)

	fused := Fuse(fuzzy, semantic, p.cfg, finalCount)
	return ApplyBudget(fused, tokenBudget, p.cfg), nil
}
