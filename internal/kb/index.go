// Package kb turns structured restaurant records into a searchable
// knowledge base: document chunks, their embeddings, a cosine vector index
// and a BM25 lexical index used as a fallback.
package kb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/tastebud-ai/tastebud/models"
)

const collectionName = "restaurant_chunks"

// ErrDimensionMismatch is returned when a vector's length does not match
// the deployment's fixed embedding dimensionality.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Index is the nearest-neighbor search structure over chunk embeddings.
// Reads are cheap and concurrent; per-restaurant replacement takes the
// write lock so a concurrent read sees either the old or the new complete
// chunk set for a restaurant, never a partial mix.
type Index struct {
	mu         sync.RWMutex
	collection *chromem.Collection
	lexical    *lexicalIndex
	dimension  int

	chunksByID map[string]models.DocumentChunk
	idsByOwner map[string][]string // restaurant id ("" = agnostic) -> chunk ids
}

// NewIndex creates a vector index with the given fixed dimensionality.
// When path is non-empty the underlying store is persisted there.
func NewIndex(path string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	var db *chromem.DB
	var err error
	if path != "" {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("opening vector store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{
		"hnsw:space": "cosine",
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	lex, err := newLexicalIndex()
	if err != nil {
		return nil, err
	}

	return &Index{
		collection: collection,
		lexical:    lex,
		dimension:  dimension,
		chunksByID: make(map[string]models.DocumentChunk),
		idsByOwner: make(map[string][]string),
	}, nil
}

// Dimension returns the fixed embedding dimensionality.
func (ix *Index) Dimension() int { return ix.dimension }

// Count returns the number of chunks currently indexed.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunksByID)
}

// ReplaceRestaurant atomically swaps all chunks owned by restaurantID
// (empty string swaps the restaurant-agnostic set) for the given chunks.
// Every chunk must carry an embedding of the index dimension.
func (ix *Index) ReplaceRestaurant(ctx context.Context, restaurantID string, chunks []models.DocumentChunk) error {
	for _, c := range chunks {
		if c.RestaurantID != restaurantID {
			return fmt.Errorf("chunk %s belongs to %q, not %q", c.ID, c.RestaurantID, restaurantID)
		}
		if len(c.Embedding) != ix.dimension {
			return fmt.Errorf("chunk %s: %w (got %d, want %d)", c.ID, ErrDimensionMismatch, len(c.Embedding), ix.dimension)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	old := ix.idsByOwner[restaurantID]
	if len(old) > 0 {
		if err := ix.collection.Delete(ctx, map[string]string{"restaurant_id": restaurantID}, nil); err != nil {
			return fmt.Errorf("deleting stale chunks: %w", err)
		}
		for _, id := range old {
			delete(ix.chunksByID, id)
			ix.lexical.remove(id)
		}
		delete(ix.idsByOwner, restaurantID)
	}

	for _, c := range chunks {
		err := ix.collection.AddDocument(ctx, chromem.Document{
			ID:        c.ID,
			Embedding: c.Embedding,
			Content:   c.Text,
			Metadata: map[string]string{
				"restaurant_id": c.RestaurantID,
				"restaurant":    c.Restaurant,
				"kind":          string(c.Kind),
				"seq":           strconv.Itoa(c.Seq),
			},
		})
		if err != nil {
			return fmt.Errorf("adding chunk %s: %w", c.ID, err)
		}
		ix.chunksByID[c.ID] = c
		ix.idsByOwner[restaurantID] = append(ix.idsByOwner[restaurantID], c.ID)
		if err := ix.lexical.add(c); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// eligible returns how many chunks the scope can see. Restaurant-agnostic
// chunks are excluded from restaurant-scoped queries; this is the fixed
// scoping policy of the deployment.
func (ix *Index) eligible(scope string) int {
	if scope == "" {
		return len(ix.chunksByID)
	}
	return len(ix.idsByOwner[scope])
}

// Search returns the topK most similar chunks under the given scope,
// ordered by descending cosine similarity with ties broken by chunk
// insertion order. An empty index or empty scope partition yields an empty
// result, not an error.
func (ix *Index) Search(ctx context.Context, queryVec []float32, topK int, scope string) ([]models.ScoredChunk, error) {
	if len(queryVec) != ix.dimension {
		return nil, fmt.Errorf("query vector: %w (got %d, want %d)", ErrDimensionMismatch, len(queryVec), ix.dimension)
	}
	if topK <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := ix.eligible(scope)
	if n == 0 {
		return nil, nil
	}

	var where map[string]string
	if scope != "" {
		where = map[string]string{"restaurant_id": scope}
	}

	// Fetch the whole eligible partition so equal-similarity chunks at the
	// topK boundary can be ordered by insertion sequence.
	results, err := ix.collection.QueryEmbedding(ctx, queryVec, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		chunk, ok := ix.chunksByID[r.ID]
		if !ok {
			continue
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: float64(r.Similarity)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Seq < scored[j].Chunk.Seq
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// LexicalSearch runs a BM25 keyword search under the same scoping rules.
// Used by the retriever when the query embedding is unavailable.
func (ix *Index) LexicalSearch(query string, topK int, scope string) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.eligible(scope) == 0 {
		return nil, nil
	}

	hits, err := ix.lexical.search(query, topK, scope)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	var scored []models.ScoredChunk
	for _, h := range hits {
		chunk, ok := ix.chunksByID[h.id]
		if !ok {
			continue
		}
		scored = append(scored, models.ScoredChunk{Chunk: chunk, Score: h.score})
	}
	return scored, nil
}
