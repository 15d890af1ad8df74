package retriever

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tastebud-ai/tastebud/internal/kb"
	"github.com/tastebud-ai/tastebud/models"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func populatedIndex(t *testing.T) *kb.Index {
	t.Helper()
	ix, err := kb.NewIndex("", 3)
	if err != nil {
		t.Fatal(err)
	}
	chunks := []models.DocumentChunk{
		{
			ID: "r1:menu:0", RestaurantID: "r1", Restaurant: "Mario's",
			Kind: models.ChunkKindMenuItem,
			Text: "Restaurant: Mario's\nMenu Item: Margherita Pizza\nDescription: Wood fired\nPrice: 320\nFood Type: veg\nRating: 4.6",
			Embedding: []float32{1, 0, 0}, Seq: 1,
		},
		{
			ID: "r1:info", RestaurantID: "r1", Restaurant: "Mario's",
			Kind: models.ChunkKindInfo,
			Text: "Restaurant: Mario's\nLocation: Goa\nHours: 10am - 10pm\nContact: 123",
			Embedding: []float32{0, 1, 0}, Seq: 2,
		},
	}
	if err := ix.ReplaceRestaurant(context.Background(), "r1", chunks); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	ix := populatedIndex(t)
	r := New(&stubEmbedder{vec: []float32{1, 0, 0}}, ix, 1, time.Second)

	got, kind := r.Retrieve(context.Background(), "pizza please", "r1")
	if kind != QueryGeneral {
		t.Errorf("query type %s, want general", kind)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0].Chunk.ID != "r1:menu:0" {
		t.Errorf("expected the menu chunk first, got %s", got[0].Chunk.ID)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	ix, err := kb.NewIndex("", 3)
	if err != nil {
		t.Fatal(err)
	}
	r := New(&stubEmbedder{vec: []float32{1, 0, 0}}, ix, 5, time.Second)

	if got, _ := r.Retrieve(context.Background(), "anything", ""); len(got) != 0 {
		t.Fatalf("expected empty context, got %d chunks", len(got))
	}
}

func TestRetrieveLexicalFallback(t *testing.T) {
	ix := populatedIndex(t)
	r := New(&stubEmbedder{err: errors.New("embedding api down")}, ix, 5, time.Second)

	got, _ := r.Retrieve(context.Background(), "pizza", "r1")
	if len(got) == 0 {
		t.Fatal("expected keyword results when embedding is unavailable")
	}
	if got[0].Chunk.ID != "r1:menu:0" {
		t.Errorf("expected the pizza chunk, got %s", got[0].Chunk.ID)
	}
}

func TestRetrieveFallbackHonorsScope(t *testing.T) {
	ix := populatedIndex(t)
	r := New(&stubEmbedder{err: errors.New("embedding api down")}, ix, 5, time.Second)

	if got, _ := r.Retrieve(context.Background(), "pizza", "r2"); len(got) != 0 {
		t.Fatalf("fallback leaked chunks outside scope: %d", len(got))
	}
}
