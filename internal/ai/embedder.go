package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
)

const (
	embedMaxRetries     = 3
	embedInitialBackoff = 500 * time.Millisecond
)

// Embedder generates a fixed-dimension embedding for a single text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder implements Embedder on top of a langchaingo embeddings
// client, retrying rate-limited calls with exponential backoff.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	backoff  time.Duration
}

func newOpenAIEmbedder(e embeddings.Embedder) *OpenAIEmbedder {
	return &OpenAIEmbedder{embedder: e, backoff: embedInitialBackoff}
}

// EmbedText returns the embedding vector for text. Empty text is rejected
// before any network call.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedding empty text")
	}

	var lastErr error
	for attempt := range embedMaxRetries {
		vec, err := e.embedder.EmbedQuery(ctx, text)
		if err == nil {
			return vec, nil
		}
		if !isRateLimit(err) {
			return nil, fmt.Errorf("embedding text: %w", err)
		}

		lastErr = err
		if attempt < embedMaxRetries-1 {
			backoff := time.Duration(float64(e.backoff) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("rate limited after %d retries: %w", embedMaxRetries, lastErr)
}

// isRateLimit inspects the provider error text; langchaingo surfaces HTTP
// 429 responses as plain errors rather than typed ones.
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
