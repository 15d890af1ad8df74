// Package session stores per-conversation state: the scope fixed at
// creation and the ordered message history.
package session

import (
	"context"
	"fmt"

	"github.com/tastebud-ai/tastebud/config"
	"github.com/tastebud-ai/tastebud/models"
)

// Store is the session backend. Implementations evict sessions that have
// been idle longer than the configured TTL; callers never observe an
// "expired" error, an unknown or evicted id simply behaves like a new
// session.
type Store interface {
	// GetOrCreate resolves id to a live session. An empty, unknown or
	// evicted id yields a fresh session with a new id and the supplied
	// scope. For an existing session the stored scope wins and the
	// supplied one is ignored.
	GetOrCreate(ctx context.Context, id, scope string) (models.Session, error)

	// Append records a message on the session, assigning the next
	// sequence number. Appending to an unknown or evicted id
	// transparently re-creates the session under that id.
	Append(ctx context.Context, id string, role models.Role, content string) (models.Message, error)

	// AppendTurn records a user message and its assistant reply as one
	// operation, so no reader ever observes the pair half-written.
	AppendTurn(ctx context.Context, id, userContent, assistantContent string) error

	// History returns the session's messages in sequence order. Unknown
	// ids yield an empty history, not an error.
	History(ctx context.Context, id string) ([]models.Message, error)

	// Delete removes the session. Deleting an unknown id is a no-op.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources and stops background eviction.
	Close() error
}

// NewStore builds the configured session backend.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Backend {
	case "", "inmemory":
		return NewMemoryStore(cfg.TTL, cfg.SweepInterval), nil
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Backend)
	}
}
