package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tastebud-ai/tastebud/models"
)

type stubCompleter struct {
	answer string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

func scored(restaurant, text string) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.DocumentChunk{Restaurant: restaurant, Text: text},
		Score: 0.9,
	}
}

func TestGenerateReturnsModelAnswer(t *testing.T) {
	c := &stubCompleter{answer: "  Paneer Tikka costs 250.  "}
	g := New(c, 6, time.Second)

	answer, degraded := g.Generate(context.Background(), "how much is the paneer tikka?", nil,
		[]models.ScoredChunk{scored("Spice Garden", "Menu Item: Paneer Tikka\nPrice: 250")})
	if degraded {
		t.Fatal("answer should not be degraded")
	}
	if answer != "Paneer Tikka costs 250." {
		t.Errorf("unexpected answer %q", answer)
	}
	if !strings.Contains(c.prompt, "Price: 250") {
		t.Errorf("prompt missing context:\n%s", c.prompt)
	}
}

func TestGenerateDegradedOnModelFailure(t *testing.T) {
	g := New(&stubCompleter{err: errors.New("rate limited")}, 6, time.Second)

	answer, degraded := g.Generate(context.Background(), "hello", nil, nil)
	if !degraded {
		t.Fatal("expected degraded answer")
	}
	if answer != DegradedAnswer {
		t.Errorf("unexpected degraded answer %q", answer)
	}
}

func TestGenerateDegradedOnBlankAnswer(t *testing.T) {
	g := New(&stubCompleter{answer: "   "}, 6, time.Second)

	if _, degraded := g.Generate(context.Background(), "hello", nil, nil); !degraded {
		t.Fatal("blank model output should degrade")
	}
}

func TestBuildPromptEmptyContext(t *testing.T) {
	g := New(&stubCompleter{}, 6, time.Second)

	prompt := g.BuildPrompt("any vegan places?", nil, nil)
	if !strings.Contains(prompt, "No relevant information found.") {
		t.Errorf("empty context not stated:\n%s", prompt)
	}
	if !strings.Contains(prompt, "USER QUESTION: any vegan places?") {
		t.Errorf("question missing:\n%s", prompt)
	}
}

func TestBuildPromptHistoryWindow(t *testing.T) {
	g := New(&stubCompleter{}, 2, time.Second)

	history := []models.Message{
		{Role: models.RoleUser, Content: "oldest question", Seq: 1},
		{Role: models.RoleAssistant, Content: "oldest answer", Seq: 2},
		{Role: models.RoleUser, Content: "recent question", Seq: 3},
	}
	prompt := g.BuildPrompt("follow up", history, nil)
	if strings.Contains(prompt, "oldest question") {
		t.Error("history window should drop the oldest messages")
	}
	if !strings.Contains(prompt, "oldest answer") || !strings.Contains(prompt, "recent question") {
		t.Errorf("recent history missing:\n%s", prompt)
	}
}

func TestBuildPromptGroupsContextByRestaurant(t *testing.T) {
	g := New(&stubCompleter{}, 6, time.Second)

	prompt := g.BuildPrompt("compare them", nil, []models.ScoredChunk{
		scored("Spice Garden", "Menu Item: Paneer Tikka"),
		scored("Noodle House", "Menu Item: Hakka Noodles"),
		scored("Spice Garden", "Restaurant Spice Garden features: live music"),
	})
	if !strings.Contains(prompt, "## Spice Garden") || !strings.Contains(prompt, "## Noodle House") {
		t.Errorf("restaurant headings missing:\n%s", prompt)
	}
	// One heading per restaurant even when chunks interleave.
	if strings.Count(prompt, "## Spice Garden") != 1 {
		t.Errorf("duplicate restaurant heading:\n%s", prompt)
	}
}
