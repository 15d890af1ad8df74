// Package chat runs the turn pipeline: resolve the session, retrieve
// context under its scope, generate the answer and record both messages.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/tastebud-ai/tastebud/internal/generator"
	"github.com/tastebud-ai/tastebud/internal/retriever"
	"github.com/tastebud-ai/tastebud/internal/session"
	"github.com/tastebud-ai/tastebud/internal/telemetry"
	"github.com/tastebud-ai/tastebud/models"
)

// ErrEmptyMessage is returned for a blank user message. The session is
// left untouched in that case.
var ErrEmptyMessage = errors.New("message must not be empty")

// Turn is the result of one completed chat exchange.
type Turn struct {
	SessionID string
	Answer    string
	Degraded  bool
	QueryType string
	Sources   []models.Source
}

// sourceContentLimit bounds how much chunk text a source attribution shows.
const sourceContentLimit = 100

// Orchestrator wires the session store, retriever and generator into the
// chat operation shared by every transport.
type Orchestrator struct {
	sessions  session.Store
	retriever *retriever.Retriever
	generator *generator.Generator
	locks     *sessionLocks
	logger    *log.Logger
}

// New creates the orchestrator.
func New(sessions session.Store, retriever *retriever.Retriever, generator *generator.Generator) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		locks:     newSessionLocks(),
		logger:    log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
	}
}

// Chat processes one user message. sessionID may be empty to start a new
// conversation; scope is a restaurant id or empty for a global session and
// only takes effect when a new session is created. Turns on the same
// session are serialized, so concurrent callers always observe the
// user/assistant pair of a turn adjacent in the history.
func (o *Orchestrator) Chat(ctx context.Context, sessionID, scope, message string) (Turn, error) {
	start := time.Now()

	if strings.TrimSpace(message) == "" {
		return Turn{}, ErrEmptyMessage
	}

	sess, err := o.sessions.GetOrCreate(ctx, sessionID, scope)
	if err != nil {
		return Turn{}, err
	}

	o.locks.lock(sess.ID)
	defer o.locks.unlock(sess.ID)

	// Re-read under the lock so a concurrent turn that finished first is
	// visible in this turn's prompt.
	history, err := o.sessions.History(ctx, sess.ID)
	if err != nil {
		return Turn{}, err
	}

	chunks, queryType := o.retriever.Retrieve(ctx, message, sess.Scope)
	answer, degraded := o.generator.Generate(ctx, message, history, chunks)

	// The answer is already produced; a store failure must not turn it
	// into an error for the caller.
	if err := o.sessions.AppendTurn(ctx, sess.ID, message, answer); err != nil {
		o.logger.Printf("recording turn on session %s failed: %v", sess.ID, err)
		telemetry.RecordFailures.Inc()
	}

	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	telemetry.TurnsTotal.WithLabelValues(outcome).Inc()
	telemetry.TurnDuration.Observe(time.Since(start).Seconds())
	o.logger.Printf("turn complete: session=%s scope=%q type=%s context=%d outcome=%s elapsed=%s",
		sess.ID, sess.Scope, queryType, len(chunks), outcome, time.Since(start).Round(time.Millisecond))

	return Turn{
		SessionID: sess.ID,
		Answer:    answer,
		Degraded:  degraded,
		QueryType: string(queryType),
		Sources:   sources(chunks),
	}, nil
}

// sources attributes the answer to the chunks it was grounded on.
func sources(chunks []models.ScoredChunk) []models.Source {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]models.Source, 0, len(chunks))
	for _, c := range chunks {
		content := c.Chunk.Text
		if len(content) > sourceContentLimit {
			content = content[:sourceContentLimit] + "..."
		}
		out = append(out, models.Source{
			Content:    content,
			Restaurant: c.Chunk.Restaurant,
			Score:      c.Score,
		})
	}
	return out
}

// History exposes a session's transcript for transports that replay it.
func (o *Orchestrator) History(ctx context.Context, sessionID string) ([]models.Message, error) {
	return o.sessions.History(ctx, sessionID)
}
