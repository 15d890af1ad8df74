// Package retriever answers "which chunks are relevant to this query"
// under a session's scope. Embedding or search failures never surface to
// the caller as errors; the worst case is empty context.
package retriever

import (
	"context"
	"log"
	"time"

	"github.com/tastebud-ai/tastebud/internal/kb"
	"github.com/tastebud-ai/tastebud/internal/telemetry"
	"github.com/tastebud-ai/tastebud/models"
)

// Retriever embeds a query and searches the vector index.
type Retriever struct {
	embedder     kb.Embedder
	index        *kb.Index
	topK         int
	embedTimeout time.Duration
	logger       *log.Logger
}

// New creates a retriever. topK is a deployment constant bounding context
// size; it is never supplied by the user.
func New(embedder kb.Embedder, index *kb.Index, topK int, embedTimeout time.Duration) *Retriever {
	return &Retriever{
		embedder:     embedder,
		index:        index,
		topK:         topK,
		embedTimeout: embedTimeout,
		logger:       log.New(log.Writer(), "[RETRIEVER] ", log.LstdFlags),
	}
}

// Retrieve returns the ranked context chunks for the query and its
// detected type. scope is empty for global sessions or a restaurant id.
// The query is classified and enriched with the vocabulary of the matching
// chunk kind before embedding. When the query embedding cannot be produced
// the retriever falls back to BM25 keyword search under the same scope;
// when that fails too it returns empty context.
func (r *Retriever) Retrieve(ctx context.Context, query, scope string) ([]models.ScoredChunk, QueryType) {
	kind := DetectQueryType(query)
	if r.index.Count() == 0 {
		return nil, kind
	}
	enhanced := enhanceQuery(query, kind)

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vecs, err := r.embedder.CreateEmbedding(embedCtx, []string{enhanced})
	cancel()
	if err != nil || len(vecs) != 1 {
		r.logger.Printf("query embedding failed, using lexical fallback: %v", err)
		telemetry.RetrievalFallbacks.Inc()
		return r.lexical(query, scope), kind
	}

	chunks, err := r.index.Search(ctx, vecs[0], r.topK, scope)
	if err != nil {
		r.logger.Printf("vector search failed, using lexical fallback: %v", err)
		telemetry.RetrievalFallbacks.Inc()
		return r.lexical(query, scope), kind
	}
	return chunks, kind
}

func (r *Retriever) lexical(query, scope string) []models.ScoredChunk {
	chunks, err := r.index.LexicalSearch(query, r.topK, scope)
	if err != nil {
		r.logger.Printf("lexical search failed: %v", err)
		return nil
	}
	return chunks
}
