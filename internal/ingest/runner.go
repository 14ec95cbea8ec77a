// Package ingest implements the offline pipeline that populates the vector
// collection: scrape each source page, split it into overlapping chunks,
// embed each chunk, and write the records. A failed page or chunk is logged
// and skipped; only missing configuration or a failed collection creation
// aborts the run.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/tmc/langchaingo/textsplitter"
	"golang.org/x/sync/errgroup"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/vector"
)

// Chunking parameters. Overlap keeps neighboring chunks redundant enough
// that a sentence cut at a boundary still appears whole in one of them.
const (
	ChunkSize    = 512
	ChunkOverlap = 100
)

// embedWorkers bounds concurrent embedding calls per page.
const embedWorkers = 4

// Scraper turns a source URL into plain page text.
type Scraper interface {
	Text(ctx context.Context, url string) (string, error)
}

// Splitter splits page text into chunks. Satisfied by langchaingo's
// text splitters.
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// NewSplitter returns the recursive character splitter used by the
// pipeline: best-effort paragraph, then sentence, then word boundaries
// before hard cuts.
func NewSplitter() Splitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(ChunkSize),
		textsplitter.WithChunkOverlap(ChunkOverlap),
	)
}

// Stats summarizes an ingestion run.
type Stats struct {
	Sources  int // sources that produced at least one chunk
	Skipped  int // sources skipped (empty or failed)
	Chunks   int // chunks produced by the splitter
	Inserted int // records written to the store
}

// Runner drives the ingestion pipeline.
type Runner struct {
	scraper   Scraper
	splitter  Splitter
	embedder  ai.Embedder
	store     vector.Store
	dimension int
	logger    *slog.Logger
}

// NewRunner wires the pipeline. dimension <= 0 falls back to the store
// default.
func NewRunner(scraper Scraper, splitter Splitter, embedder ai.Embedder, store vector.Store, dimension int) *Runner {
	if dimension <= 0 {
		dimension = vector.DefaultDimension
	}
	return &Runner{
		scraper:   scraper,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		dimension: dimension,
		logger:    slog.Default(),
	}
}

// Run ensures the collection exists, then processes each source URL in
// order. It returns an error only for fatal conditions; per-source and
// per-chunk failures are logged and skipped.
func (r *Runner) Run(ctx context.Context, urls []string) (Stats, error) {
	if err := r.store.EnsureCollection(ctx); err != nil {
		return Stats{}, fmt.Errorf("ensuring collection: %w", err)
	}

	var stats Stats
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		r.logger.Info("scraping", "source", url)
		text, err := r.scraper.Text(ctx, url)
		if err != nil {
			r.logger.Warn("scrape failed, skipping source", "source", url, "error", err)
			stats.Skipped++
			continue
		}
		if strings.TrimSpace(text) == "" {
			r.logger.Warn("no content scraped, skipping source", "source", url)
			stats.Skipped++
			continue
		}

		chunks, err := r.splitter.SplitText(text)
		if err != nil {
			r.logger.Warn("splitting failed, skipping source", "source", url, "error", err)
			stats.Skipped++
			continue
		}
		r.logger.Info("split into chunks", "source", url, "chunks", len(chunks))

		inserted := r.ingestChunks(ctx, url, chunks)
		stats.Sources++
		stats.Chunks += len(chunks)
		stats.Inserted += inserted
	}

	return stats, nil
}

// IngestText runs the chunk-embed-write path for text that was obtained
// outside the scraper, e.g. a local document. The collection must already
// exist (Run creates it; callers can use EnsureCollection directly).
func (r *Runner) IngestText(ctx context.Context, source, text string) (chunks, inserted int, err error) {
	if strings.TrimSpace(text) == "" {
		return 0, 0, fmt.Errorf("no text content in %s", source)
	}
	split, err := r.splitter.SplitText(text)
	if err != nil {
		return 0, 0, fmt.Errorf("splitting %s: %w", source, err)
	}
	return len(split), r.ingestChunks(ctx, source, split), nil
}

// ingestChunks embeds and writes chunks with bounded concurrency. Each
// chunk is independent; one failure never aborts its siblings.
func (r *Runner) ingestChunks(ctx context.Context, source string, chunks []string) int {
	var inserted atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)

	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := r.embedder.EmbedText(gCtx, chunk)
			if err != nil {
				r.logger.Error("embedding chunk failed", "source", source, "chunk", i, "error", err)
				return nil
			}
			if len(vec) != r.dimension {
				r.logger.Error("invalid vector length, rejecting chunk",
					"source", source, "chunk", i, "got", len(vec), "want", r.dimension)
				return nil
			}

			rec := vector.Record{Vector: vec, Text: chunk, Source: source}
			if err := r.store.Insert(gCtx, rec); err != nil {
				r.logger.Error("inserting chunk failed", "source", source, "chunk", i, "error", err)
				return nil
			}

			inserted.Add(1)
			return nil
		})
	}

	g.Wait()
	return int(inserted.Load())
}
