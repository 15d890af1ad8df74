package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tastebud-ai/tastebud/models"
)

const sampleData = `[
  {
    "id": "r1",
    "name": "Spice Garden",
    "location": "12 MG Road, Bengaluru",
    "contact_info": "+91 80 1234 5678",
    "operating_hours": "11am - 11pm",
    "special_features": ["outdoor seating", "live music"],
    "menu": [
      {"name": "Paneer Tikka", "description": "Chargrilled cottage cheese", "price": 250, "food_type": "veg", "rating": 4.5},
      {"name": "Butter Chicken", "description": "Classic creamy curry", "price": "380", "food_type": "non-veg", "rating": 4.2}
    ]
  },
  {
    "id": "r2",
    "name": "Noodle House",
    "location": "5 Park Street, Kolkata",
    "contact_info": "+91 33 8765 4321",
    "operating_hours": "12pm - 10pm",
    "special_features": [],
    "menu": []
  }
]`

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "restaurants.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileStoreListRestaurants(t *testing.T) {
	store := NewFileStore(writeData(t, sampleData))

	restaurants, err := store.ListRestaurants(context.Background())
	if err != nil {
		t.Fatalf("ListRestaurants: %v", err)
	}
	if len(restaurants) != 2 {
		t.Fatalf("expected 2 restaurants, got %d", len(restaurants))
	}
	if restaurants[0].Name != "Spice Garden" || restaurants[0].Contact != "+91 80 1234 5678" {
		t.Errorf("unexpected first restaurant: %+v", restaurants[0])
	}
	if len(restaurants[0].SpecialFeatures) != 2 {
		t.Errorf("expected 2 special features, got %v", restaurants[0].SpecialFeatures)
	}
}

func TestFileStoreMenuPriceForms(t *testing.T) {
	store := NewFileStore(writeData(t, sampleData))

	items, err := store.ListMenuItems(context.Background(), "r1")
	if err != nil {
		t.Fatalf("ListMenuItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 menu items, got %d", len(items))
	}
	// Numeric and quoted prices both parse.
	if items[0].Price != 250 {
		t.Errorf("expected price 250, got %v", items[0].Price)
	}
	if items[1].Price != 380 {
		t.Errorf("expected price 380, got %v", items[1].Price)
	}
}

func TestFileStoreUnknownRestaurant(t *testing.T) {
	store := NewFileStore(writeData(t, sampleData))

	_, err := store.ListMenuItems(context.Background(), "nope")
	if !errors.Is(err, models.ErrRestaurantNotFound) {
		t.Fatalf("expected ErrRestaurantNotFound, got %v", err)
	}
}

func TestFileStoreEmptyMenu(t *testing.T) {
	store := NewFileStore(writeData(t, sampleData))

	items, err := store.ListMenuItems(context.Background(), "r2")
	if err != nil {
		t.Fatalf("ListMenuItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty menu, got %d items", len(items))
	}
}

func TestFileStoreBadRecord(t *testing.T) {
	store := NewFileStore(writeData(t, `[{"name": "No ID"}]`))

	if _, err := store.ListRestaurants(context.Background()); err == nil {
		t.Fatal("expected error for record missing id")
	}
}
