package kb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tastebud-ai/tastebud/models"
)

// fakeEmbedder produces deterministic vectors. failBatch forces the
// batched call to fail so the builder falls back to per-chunk calls;
// failTexts makes individual texts unembeddable.
type fakeEmbedder struct {
	dim       int
	failBatch bool
	failTexts map[string]bool
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failBatch && len(texts) > 1 {
		return nil, errors.New("batch embedding unavailable")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failTexts[text] {
			return nil, errors.New("embedding unavailable")
		}
		vec := make([]float32, f.dim)
		vec[0] = 1
		vec[1] = float32(len(text)%7) + 1
		out[i] = vec
	}
	return out, nil
}

type fakeStore struct {
	restaurants []models.Restaurant
	menus       map[string][]models.MenuItem
	menuErr     map[string]error
}

func (f *fakeStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return f.restaurants, nil
}

func (f *fakeStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	if err := f.menuErr[restaurantID]; err != nil {
		return nil, err
	}
	return f.menus[restaurantID], nil
}

func testRestaurant() models.Restaurant {
	return models.Restaurant{
		ID:              "r1",
		Name:            "Spice Garden",
		Location:        "12 MG Road, Bengaluru",
		Contact:         "+91 80 1234 5678",
		OperatingHours:  "11am - 11pm",
		SpecialFeatures: []string{"outdoor seating", "live music"},
	}
}

func TestChunksFormats(t *testing.T) {
	b := NewBuilder(&fakeEmbedder{dim: 4}, testIndex(t, 4), time.Second)

	items := []models.MenuItem{{
		RestaurantID: "r1",
		Name:         "Paneer Tikka",
		Description:  "Chargrilled cottage cheese",
		Price:        250,
		FoodType:     "veg",
		Rating:       4.5,
	}}
	chunks := b.Chunks(testRestaurant(), items)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	wantInfo := "Restaurant: Spice Garden\nLocation: 12 MG Road, Bengaluru\nHours: 11am - 11pm\nContact: +91 80 1234 5678"
	if chunks[0].Text != wantInfo {
		t.Errorf("info chunk:\ngot  %q\nwant %q", chunks[0].Text, wantInfo)
	}
	if chunks[0].ID != "r1:info" || chunks[0].Kind != models.ChunkKindInfo {
		t.Errorf("unexpected info chunk identity: %+v", chunks[0])
	}

	wantFeatures := "Restaurant Spice Garden features: outdoor seating, live music"
	if chunks[1].Text != wantFeatures {
		t.Errorf("features chunk:\ngot  %q\nwant %q", chunks[1].Text, wantFeatures)
	}

	// Whole-number prices render without a decimal point.
	wantMenu := "Restaurant: Spice Garden\nMenu Item: Paneer Tikka\nDescription: Chargrilled cottage cheese\nPrice: 250\nFood Type: veg\nRating: 4.5"
	if chunks[2].Text != wantMenu {
		t.Errorf("menu chunk:\ngot  %q\nwant %q", chunks[2].Text, wantMenu)
	}
	if chunks[2].ID != "r1:menu:0" {
		t.Errorf("unexpected menu chunk id %q", chunks[2].ID)
	}
}

func TestChunksNoFeatures(t *testing.T) {
	b := NewBuilder(&fakeEmbedder{dim: 4}, testIndex(t, 4), time.Second)

	r := testRestaurant()
	r.SpecialFeatures = nil
	chunks := b.Chunks(r, nil)
	if len(chunks) != 1 {
		t.Fatalf("expected only the info chunk, got %d", len(chunks))
	}
}

func TestBuildIndexesAllRestaurants(t *testing.T) {
	ix := testIndex(t, 4)
	b := NewBuilder(&fakeEmbedder{dim: 4}, ix, time.Second)

	store := &fakeStore{
		restaurants: []models.Restaurant{
			testRestaurant(),
			{ID: "r2", Name: "Noodle House", Location: "Kolkata"},
		},
		menus: map[string][]models.MenuItem{
			"r1": {{RestaurantID: "r1", Name: "Paneer Tikka", Price: 250}},
		},
	}

	if err := b.Build(context.Background(), store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	// r1: info + features + 1 menu item; r2: info only.
	if got := ix.Count(); got != 4 {
		t.Fatalf("expected 4 chunks, got %d", got)
	}
}

func TestBuildRebuildDoesNotDuplicate(t *testing.T) {
	ix := testIndex(t, 4)
	b := NewBuilder(&fakeEmbedder{dim: 4}, ix, time.Second)

	store := &fakeStore{
		restaurants: []models.Restaurant{testRestaurant()},
		menus: map[string][]models.MenuItem{
			"r1": {{RestaurantID: "r1", Name: "Paneer Tikka", Price: 250}},
		},
	}

	if err := b.Build(context.Background(), store); err != nil {
		t.Fatalf("first Build: %v", err)
	}
	first := ix.Count()
	if err := b.Build(context.Background(), store); err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if got := ix.Count(); got != first {
		t.Fatalf("rebuild changed chunk count: %d -> %d", first, got)
	}
}

func TestBuildSkipsUnembeddableChunks(t *testing.T) {
	ix := testIndex(t, 4)

	r := testRestaurant()
	r.SpecialFeatures = nil
	badText := "Restaurant: Spice Garden\nLocation: 12 MG Road, Bengaluru\nHours: 11am - 11pm\nContact: +91 80 1234 5678"
	emb := &fakeEmbedder{dim: 4, failBatch: true, failTexts: map[string]bool{badText: true}}
	b := NewBuilder(emb, ix, time.Second)

	store := &fakeStore{
		restaurants: []models.Restaurant{r},
		menus: map[string][]models.MenuItem{
			"r1": {{RestaurantID: "r1", Name: "Paneer Tikka", Price: 250}},
		},
	}

	if err := b.Build(context.Background(), store); err != nil {
		t.Fatalf("Build: %v", err)
	}
	// The info chunk is skipped, the menu chunk survives.
	if got := ix.Count(); got != 1 {
		t.Fatalf("expected 1 chunk after skip, got %d", got)
	}
}

func TestBuildSkipsRestaurantOnMenuError(t *testing.T) {
	ix := testIndex(t, 4)
	b := NewBuilder(&fakeEmbedder{dim: 4}, ix, time.Second)

	store := &fakeStore{
		restaurants: []models.Restaurant{
			testRestaurant(),
			{ID: "r2", Name: "Broken Place"},
		},
		menus:   map[string][]models.MenuItem{},
		menuErr: map[string]error{"r2": errors.New("connection refused")},
	}

	if err := b.Build(context.Background(), store); err != nil {
		t.Fatalf("Build should tolerate per-restaurant failures: %v", err)
	}
	// r1 indexed (info + features), r2 skipped entirely.
	if got := ix.Count(); got != 2 {
		t.Fatalf("expected 2 chunks, got %d", got)
	}
}
