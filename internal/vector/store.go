package vector

import "context"

// Collection defaults. The dimension matches text-embedding-3-small; the
// metric must match whatever was used when vectors were written, otherwise
// search quality silently degrades.
const (
	DefaultDimension = 1536
	MetricDotProduct = "dot_product"
)

// Record is the persisted unit: one chunk's embedding, its text, and the
// URL (or file path) it came from.
type Record struct {
	Vector []float32
	Text   string
	Source string
}

// Store is the shared vector collection used by both the ingestion and the
// query pipeline. Implementations must be safe for concurrent use.
type Store interface {
	// EnsureCollection creates the collection with the configured dimension
	// and metric. A collection that already exists is success, not an error.
	EnsureCollection(ctx context.Context) error

	// Insert writes one record. There are no upsert or uniqueness semantics;
	// re-ingesting a source simply adds new records.
	Insert(ctx context.Context, rec Record) error

	// Search returns up to limit records ordered most-to-least similar to the
	// query vector. An empty collection yields an empty result, not an error.
	Search(ctx context.Context, vector []float32, limit int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
