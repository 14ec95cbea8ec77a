package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/vector"
)

// DefaultTopK is the similarity search result cap.
const DefaultTopK = 10

// Retriever combines embedding and vector search to find the chunks most
// relevant to a question.
type Retriever struct {
	embedder ai.Embedder
	store    vector.Store
	topK     int
}

// New creates a Retriever. topK <= 0 falls back to DefaultTopK.
func New(embedder ai.Embedder, store vector.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the query and returns the top-K most similar records,
// most similar first. An empty collection yields an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]vector.Record, error) {
	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	records, err := r.store.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}
	return records, nil
}

// Context concatenates the retrieved texts into the block injected into the
// system prompt. Zero records produce the empty string, which is a valid
// degraded-context value.
func Context(records []vector.Record) string {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	return strings.Join(texts, "\n\n")
}
