package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/tastebud-ai/tastebud/models"
)

// FileStore reads restaurant records from a JSON file produced by the
// scraper pipeline. The file holds an array of restaurants, each with a
// nested menu array. Loaded once; records are immutable.
type FileStore struct {
	path string

	once        sync.Once
	loadErr     error
	restaurants []models.Restaurant
	menus       map[string][]models.MenuItem
}

// NewFileStore creates a file-backed document store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// price tolerates both numeric and quoted values; scraped data carries
// prices like 250 and "250".
type price float64

func (p *price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s, err)
	}
	*p = price(f)
	return nil
}

type fileMenuItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       price   `json:"price"`
	FoodType    string  `json:"food_type"`
	Rating      float64 `json:"rating"`
}

type fileRestaurant struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Location        string         `json:"location"`
	Contact         string         `json:"contact_info"`
	URL             string         `json:"url"`
	OperatingHours  string         `json:"operating_hours"`
	SpecialFeatures []string       `json:"special_features"`
	Menu            []fileMenuItem `json:"menu"`
}

func (s *FileStore) load() error {
	s.once.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			s.loadErr = fmt.Errorf("reading restaurant data: %w", err)
			return
		}

		var raw []fileRestaurant
		if err := json.Unmarshal(data, &raw); err != nil {
			s.loadErr = fmt.Errorf("parsing restaurant data: %w", err)
			return
		}

		s.menus = make(map[string][]models.MenuItem, len(raw))
		for _, r := range raw {
			if r.ID == "" || r.Name == "" {
				s.loadErr = fmt.Errorf("restaurant record missing id or name")
				return
			}
			s.restaurants = append(s.restaurants, models.Restaurant{
				ID:              r.ID,
				Name:            r.Name,
				Location:        r.Location,
				Contact:         r.Contact,
				URL:             r.URL,
				OperatingHours:  r.OperatingHours,
				SpecialFeatures: r.SpecialFeatures,
			})
			for _, m := range r.Menu {
				s.menus[r.ID] = append(s.menus[r.ID], models.MenuItem{
					RestaurantID: r.ID,
					Name:         m.Name,
					Description:  m.Description,
					Price:        float64(m.Price),
					FoodType:     m.FoodType,
					Rating:       m.Rating,
				})
			}
		}
	})
	return s.loadErr
}

// ListRestaurants returns all restaurant records.
func (s *FileStore) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]models.Restaurant, len(s.restaurants))
	copy(out, s.restaurants)
	return out, nil
}

// ListMenuItems returns the menu for one restaurant.
func (s *FileStore) ListMenuItems(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	found := false
	for _, r := range s.restaurants {
		if r.ID == restaurantID {
			found = true
			break
		}
	}
	if !found {
		return nil, models.ErrRestaurantNotFound
	}
	items := s.menus[restaurantID]
	out := make([]models.MenuItem, len(items))
	copy(out, items)
	return out, nil
}
