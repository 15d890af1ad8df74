package docstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/tastebud-ai/tastebud/models"
)

// PostgresStore reads restaurant records from an existing Postgres
// database. The schema is owned by the ingestion pipeline; this store only
// issues SELECTs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres opens a connection to the document store database.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// ListRestaurants returns all restaurant records.
func (s *PostgresStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, name, location, COALESCE(contact_info,''), COALESCE(url,''),
               COALESCE(operating_hours,''), COALESCE(special_features,'{}')
        FROM restaurants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	defer rows.Close()

	var out []models.Restaurant
	for rows.Next() {
		var r models.Restaurant
		if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.Contact, &r.URL,
			&r.OperatingHours, pq.Array(&r.SpecialFeatures)); err != nil {
			return nil, fmt.Errorf("scanning restaurant: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListMenuItems returns the menu for one restaurant.
func (s *PostgresStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM restaurants WHERE id = $1)`, restaurantID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking restaurant: %w", err)
	}
	if !exists {
		return nil, models.ErrRestaurantNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT restaurant_id, name, COALESCE(description,''), price,
               COALESCE(food_type,''), COALESCE(rating,0)
        FROM menu_items WHERE restaurant_id = $1 ORDER BY name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer rows.Close()

	var out []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.RestaurantID, &m.Name, &m.Description, &m.Price,
			&m.FoodType, &m.Rating); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
