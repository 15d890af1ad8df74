// Package docstore provides read-only access to the structured restaurant
// records owned by the primary document store. The engine never writes
// through this interface.
package docstore

import (
	"context"

	"github.com/tastebud-ai/tastebud/models"
)

// Store lists restaurants and their menu items.
type Store interface {
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)
	ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error)
}
