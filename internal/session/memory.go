package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tastebud-ai/tastebud/internal/telemetry"
	"github.com/tastebud-ai/tastebud/models"
)

// MemoryStore keeps sessions in process memory. A janitor goroutine sweeps
// idle sessions on a fixed interval.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	ttl    time.Duration
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
}

// NewMemoryStore creates the in-memory backend and starts its janitor.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		logger:   log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.janitor(sweepInterval)
	return s
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, id, scope string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok && !s.expired(sess) {
			sess.LastActive = time.Now()
			return snapshot(sess), nil
		}
	}

	sess := newSession(scope)
	s.sessions[sess.ID] = sess
	return snapshot(sess), nil
}

func (s *MemoryStore) Append(ctx context.Context, id string, role models.Role, content string) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		sess = newSession("")
		sess.ID = id
		s.sessions[id] = sess
	}

	msg := models.Message{Role: role, Content: content, Seq: len(sess.Messages) + 1}
	sess.Messages = append(sess.Messages, msg)
	sess.LastActive = time.Now()
	return msg, nil
}

func (s *MemoryStore) AppendTurn(ctx context.Context, id, userContent, assistantContent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		sess = newSession("")
		sess.ID = id
		s.sessions[id] = sess
	}

	sess.Messages = append(sess.Messages,
		models.Message{Role: models.RoleUser, Content: userContent, Seq: len(sess.Messages) + 1},
		models.Message{Role: models.RoleAssistant, Content: assistantContent, Seq: len(sess.Messages) + 2},
	)
	sess.LastActive = time.Now()
	return nil
}

func (s *MemoryStore) History(ctx context.Context, id string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, nil
	}
	out := make([]models.Message, len(sess.Messages))
	copy(out, sess.Messages)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Close() error {
	close(s.stop)
	<-s.done
	return nil
}

func (s *MemoryStore) expired(sess *models.Session) bool {
	return time.Since(sess.LastActive) > s.ttl
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			telemetry.SessionsEvicted.Inc()
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Printf("evicted %d idle sessions, %d remain", evicted, len(s.sessions))
	}
}

func newSession(scope string) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:         uuid.NewString(),
		Scope:      scope,
		CreatedAt:  now,
		LastActive: now,
	}
}

func snapshot(sess *models.Session) models.Session {
	out := *sess
	out.Messages = make([]models.Message, len(sess.Messages))
	copy(out.Messages, sess.Messages)
	return out
}
