// Package generator assembles a bounded prompt from the query, recent
// history and retrieved context, and invokes the language model.
package generator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tastebud-ai/tastebud/internal/telemetry"
	"github.com/tastebud-ai/tastebud/models"
)

// DegradedAnswer is returned to the user when the model call fails. It is
// a normal answer from the caller's perspective, never an error.
const DegradedAnswer = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."

const preamble = `You are a helpful and knowledgeable restaurant information assistant. Answer the user's question based ONLY on the provided restaurant information. Be conversational, accurate, and helpful.

INSTRUCTIONS:
1. Answer ONLY based on the information provided.
2. Be conversational, friendly, and natural in your response.
3. If the information needed is not available, say so plainly instead of guessing.
4. Keep your response concise (2-4 sentences for most questions).
5. Don't mention "the provided information" or "the context"; simply present what you know naturally.`

// Completer is the language-model capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces answers from retrieved context.
type Generator struct {
	completer     Completer
	historyWindow int
	timeout       time.Duration
	logger        *log.Logger
}

// New creates a generator. historyWindow bounds how many recent messages
// are included in the prompt; oldest are dropped first.
func New(completer Completer, historyWindow int, timeout time.Duration) *Generator {
	return &Generator{
		completer:     completer,
		historyWindow: historyWindow,
		timeout:       timeout,
		logger:        log.New(log.Writer(), "[GENERATOR] ", log.LstdFlags),
	}
}

// Generate returns the answer text and whether it is degraded. A model
// failure yields the degraded apology instead of an error; empty context is
// not an error either, the instruction text makes the model say it has no
// information.
func (g *Generator) Generate(ctx context.Context, query string, history []models.Message, chunks []models.ScoredChunk) (string, bool) {
	prompt := g.BuildPrompt(query, history, chunks)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := g.completer.Complete(callCtx, prompt)
	if err != nil || strings.TrimSpace(answer) == "" {
		g.logger.Printf("model call failed: %v", err)
		telemetry.GenerationFailures.Inc()
		return DegradedAnswer, true
	}
	return strings.TrimSpace(answer), false
}

// BuildPrompt assembles the bounded prompt sent to the model.
func (g *Generator) BuildPrompt(query string, history []models.Message, chunks []models.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString("\n\n")

	if len(history) > g.historyWindow {
		history = history[len(history)-g.historyWindow:]
	}
	if len(history) > 0 {
		sb.WriteString("PREVIOUS CONVERSATION:\n")
		for _, m := range history {
			switch m.Role {
			case models.RoleUser:
				sb.WriteString("User: ")
			case models.RoleAssistant:
				sb.WriteString("Assistant: ")
			}
			sb.WriteString(m.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(formatContext(chunks))
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "USER QUESTION: %s\n\nRESPONSE:", query)
	return sb.String()
}

// formatContext groups chunks by restaurant and attributes each piece of
// information to its source.
func formatContext(chunks []models.ScoredChunk) string {
	if len(chunks) == 0 {
		return "RESTAURANT INFORMATION:\n\nNo relevant information found.\n"
	}

	var order []string
	byRestaurant := make(map[string][]models.ScoredChunk)
	for _, c := range chunks {
		name := c.Chunk.Restaurant
		if name == "" {
			name = "General"
		}
		if _, ok := byRestaurant[name]; !ok {
			order = append(order, name)
		}
		byRestaurant[name] = append(byRestaurant[name], c)
	}

	var sb strings.Builder
	sb.WriteString("RESTAURANT INFORMATION:\n\n")
	for _, name := range order {
		fmt.Fprintf(&sb, "## %s\n", name)
		for _, c := range byRestaurant[name] {
			sb.WriteString(strings.TrimSpace(c.Chunk.Text))
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
