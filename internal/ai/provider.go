// Package ai wraps the hosted OpenAI models behind small interfaces: an
// Embedder for single-text embeddings and a Generator for streamed chat
// completions. Both are stateless per call and safe for concurrent reuse.
package ai

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds the provider settings. One client serves both embedding and
// generation; the two model identifiers are set at construction.
type Config struct {
	APIKey     string
	ChatModel  string // e.g. "gpt-4o-mini"
	EmbedModel string // e.g. "text-embedding-3-small"
	BaseURL    string // optional override, used by tests
}

// Provider bundles the embedder and generator built from one OpenAI client.
type Provider struct {
	embedder  *OpenAIEmbedder
	generator *OpenAIGenerator
}

// NewProvider constructs the OpenAI client and derives both services from it.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("ai: API key is required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbedModel),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Provider{
		embedder:  newOpenAIEmbedder(embedder),
		generator: &OpenAIGenerator{llm: llm},
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() *OpenAIEmbedder { return p.embedder }

// Generator returns the streaming generation service.
func (p *Provider) Generator() *OpenAIGenerator { return p.generator }
