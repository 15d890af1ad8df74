package provider

import (
	"context"
	"errors"

	"github.com/tastebud-ai/tastebud/config"
	openai_provider "github.com/tastebud-ai/tastebud/provider/openai"
)

// Provider is the interface to the external language-model and embedding
// capabilities. Both calls have opaque latency and failure profiles; callers
// are expected to bound them with context timeouts.
type Provider interface {
	// CreateEmbedding converts texts into fixed-dimensionality vectors.
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	// Complete sends a prompt to the language model and returns its answer.
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewProvider creates an LLM provider from configuration.
func NewProvider(cfg config.LLMConfig, emb config.EmbeddingConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm.api_key not configured")
	}
	return openai_provider.NewClient(openai_provider.Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		CompletionModel: cfg.Model,
		EmbeddingModel:  emb.Model,
		Temperature:     cfg.Temperature,
		MaxTokens:       cfg.MaxTokens,
		MaxRetries:      cfg.MaxRetries,
		Timeout:         cfg.Timeout,
	}), nil
}
