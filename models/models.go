package models

import (
	"errors"
	"time"
)

// ErrRestaurantNotFound is returned when a restaurant id resolves to nothing.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// Restaurant is a structured record owned by the document store.
// Records are immutable once ingested.
type Restaurant struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Location        string   `json:"location"`
	Contact         string   `json:"contact_info"`
	URL             string   `json:"url"`
	OperatingHours  string   `json:"operating_hours"`
	SpecialFeatures []string `json:"special_features"`
}

// MenuItem belongs to exactly one restaurant.
type MenuItem struct {
	RestaurantID string  `json:"restaurant_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	FoodType     string  `json:"food_type"`
	Rating       float64 `json:"rating"`
}

// ChunkKind tags the provenance of a document chunk.
type ChunkKind string

const (
	ChunkKindInfo     ChunkKind = "info"
	ChunkKindFeatures ChunkKind = "features"
	ChunkKindMenuItem ChunkKind = "menu_item"
)

// DocumentChunk is the retrievable unit produced by the knowledge base
// builder. RestaurantID is empty for restaurant-agnostic chunks. Seq is the
// insertion order within an ingestion run and is used as a stable tie-break
// when similarity scores are equal.
type DocumentChunk struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id,omitempty"`
	Restaurant   string    `json:"restaurant,omitempty"`
	Kind         ChunkKind `json:"kind"`
	Text         string    `json:"text"`
	Embedding    []float32 `json:"-"`
	Seq          int       `json:"seq"`
}

// ScoredChunk is a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}

// Source attributes part of an answer to the chunk it was drawn from.
// Content is truncated for display.
type Source struct {
	Content    string  `json:"content"`
	Restaurant string  `json:"restaurant"`
	Score      float64 `json:"score"`
}

// Role identifies who produced a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a session's history. Seq is 1-indexed and equals
// the message's arrival position; messages are never edited or reordered.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seq     int    `json:"seq"`
}

// Session is the server-side record of one conversation. Scope is either
// empty (global) or a restaurant id, fixed for the session's lifetime.
type Session struct {
	ID         string    `json:"id"`
	Scope      string    `json:"scope,omitempty"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}
