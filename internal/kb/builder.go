package kb

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tastebud-ai/tastebud/internal/docstore"
	"github.com/tastebud-ai/tastebud/internal/telemetry"
	"github.com/tastebud-ai/tastebud/models"
)

// Embedder is the capability used to vectorize chunk text.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder converts restaurant and menu records into document chunks,
// embeds them and populates the vector index. Each restaurant's chunks are
// replaced atomically, so a re-run never leaves duplicate or stale chunks.
type Builder struct {
	embedder Embedder
	index    *Index
	timeout  time.Duration
	logger   *log.Logger

	seq int
}

// NewBuilder creates a knowledge base builder.
func NewBuilder(embedder Embedder, index *Index, embedTimeout time.Duration) *Builder {
	return &Builder{
		embedder: embedder,
		index:    index,
		timeout:  embedTimeout,
		logger:   log.New(log.Writer(), "[KB] ", log.LstdFlags),
	}
}

// Build ingests every restaurant from the document store. Embedding
// failures skip the affected chunk; the build is atomic per restaurant,
// not across the whole corpus.
func (b *Builder) Build(ctx context.Context, store docstore.Store) error {
	restaurants, err := store.ListRestaurants(ctx)
	if err != nil {
		return fmt.Errorf("listing restaurants: %w", err)
	}

	var built, skipped int
	for _, r := range restaurants {
		items, err := store.ListMenuItems(ctx, r.ID)
		if err != nil {
			b.logger.Printf("skipping restaurant %s: %v", r.ID, err)
			telemetry.ChunksSkipped.Inc()
			skipped++
			continue
		}

		chunks := b.Chunks(r, items)
		embedded, err := b.embed(ctx, chunks)
		if err != nil {
			return err
		}
		skipped += len(chunks) - len(embedded)

		if err := b.index.ReplaceRestaurant(ctx, r.ID, embedded); err != nil {
			return fmt.Errorf("replacing chunks for %s: %w", r.ID, err)
		}
		built += len(embedded)
	}

	b.logger.Printf("build complete: %d chunks indexed, %d skipped, %d restaurants", built, skipped, len(restaurants))
	return nil
}

// Chunks produces the retrievable units for one restaurant: an identity
// chunk, a features chunk when features exist, and one chunk per menu item.
func (b *Builder) Chunks(r models.Restaurant, items []models.MenuItem) []models.DocumentChunk {
	var chunks []models.DocumentChunk
	add := func(id string, kind models.ChunkKind, text string) {
		b.seq++
		chunks = append(chunks, models.DocumentChunk{
			ID:           id,
			RestaurantID: r.ID,
			Restaurant:   r.Name,
			Kind:         kind,
			Text:         text,
			Seq:          b.seq,
		})
	}

	info := fmt.Sprintf("Restaurant: %s\nLocation: %s\nHours: %s\nContact: %s",
		r.Name, r.Location, r.OperatingHours, r.Contact)
	add(r.ID+":info", models.ChunkKindInfo, info)

	if len(r.SpecialFeatures) > 0 {
		features := fmt.Sprintf("Restaurant %s features: %s", r.Name, strings.Join(r.SpecialFeatures, ", "))
		add(r.ID+":features", models.ChunkKindFeatures, features)
	}

	for i, item := range items {
		text := fmt.Sprintf("Restaurant: %s\nMenu Item: %s\nDescription: %s\nPrice: %s\nFood Type: %s\nRating: %s",
			r.Name, item.Name, item.Description,
			strconv.FormatFloat(item.Price, 'f', -1, 64),
			item.FoodType,
			strconv.FormatFloat(item.Rating, 'f', -1, 64))
		add(fmt.Sprintf("%s:menu:%d", r.ID, i), models.ChunkKindMenuItem, text)
	}
	return chunks
}

// embed vectorizes chunks, preferring one batched call and falling back to
// per-chunk calls so a single failure only skips that chunk.
func (b *Builder) embed(ctx context.Context, chunks []models.DocumentChunk) ([]models.DocumentChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batchCtx, cancel := context.WithTimeout(ctx, b.timeout)
	vecs, err := b.embedder.CreateEmbedding(batchCtx, texts)
	cancel()
	if err == nil && len(vecs) == len(chunks) {
		out := make([]models.DocumentChunk, len(chunks))
		for i := range chunks {
			out[i] = chunks[i]
			out[i].Embedding = vecs[i]
		}
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var out []models.DocumentChunk
	for _, c := range chunks {
		oneCtx, cancel := context.WithTimeout(ctx, b.timeout)
		vec, err := b.embedder.CreateEmbedding(oneCtx, []string{c.Text})
		cancel()
		if err != nil || len(vec) != 1 {
			b.logger.Printf("embedding failed for chunk %s: %v", c.ID, err)
			telemetry.ChunksSkipped.Inc()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		c.Embedding = vec[0]
		out = append(out, c)
	}
	return out, nil
}
