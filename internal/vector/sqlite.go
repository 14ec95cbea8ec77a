package vector

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is a local Store backend: embeddings live as float32 blobs in
// a single table and search is a brute-force dot-product scan with a top-K
// heap. Intended for development and tests; the hosted Astra backend is the
// default in production.
type SQLiteStore struct {
	db        *sql.DB
	dimension int
}

// OpenSQLite opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database. dimension <= 0 falls back to DefaultDimension.
func OpenSQLite(path string, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &SQLiteStore{db: db, dimension: dimension}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureCollection creates the chunks table if it does not exist.
func (s *SQLiteStore) EnsureCollection(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chunks (
			id        TEXT PRIMARY KEY,
			source    TEXT NOT NULL,
			text      TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("creating chunks table: %w", err)
	}
	return nil
}

// Insert writes one record, rejecting vectors whose length does not match
// the collection dimension.
func (s *SQLiteStore) Insert(ctx context.Context, rec Record) error {
	if len(rec.Vector) != s.dimension {
		return fmt.Errorf("vector has %d components, collection dimension is %d", len(rec.Vector), s.dimension)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, source, text, embedding) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), rec.Source, rec.Text, encodeFloat32s(rec.Vector))
	if err != nil {
		return fmt.Errorf("inserting chunk: %w", err)
	}
	return nil
}

// idScore holds only the ID and score during the scan phase of Search.
// Full rows are fetched afterwards for the top-K winners.
type idScore struct {
	ID    string
	Score float32
}

// Search scans all embeddings, scores them by dot product against the query
// vector, and returns the top-K records most-to-least similar.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	h := &idScoreHeap{}
	heap.Init(h)

	// Reusable decode buffer to avoid per-row allocations.
	var buf []float32

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}

		score := dotProduct(vector, buf)
		if h.Len() < limit {
			heap.Push(h, idScore{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if h.Len() == 0 {
		return nil, nil
	}

	// Pop the heap into descending order, then fetch full rows.
	topIDs := make([]string, h.Len())
	for i := len(topIDs) - 1; i >= 0; i-- {
		topIDs[i] = heap.Pop(h).(idScore).ID
	}

	byID, err := s.fetchByIDs(ctx, topIDs)
	if err != nil {
		return nil, err
	}

	results := make([]Record, 0, len(topIDs))
	for _, id := range topIDs {
		if rec, ok := byID[id]; ok {
			results = append(results, rec)
		}
	}
	return results, nil
}

func (s *SQLiteStore) fetchByIDs(ctx context.Context, ids []string) (map[string]Record, error) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT id, source, text, embedding FROM chunks WHERE id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching top-K rows: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]Record, len(ids))
	for rows.Next() {
		var id string
		var rec Record
		var blob []byte
		if err := rows.Scan(&id, &rec.Source, &rec.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning full row: %w", err)
		}
		vec, err := decodeFloat32s(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}
		rec.Vector = vec
		byID[id] = rec
	}
	return byID, rows.Err()
}

// Count returns the number of stored chunks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// decodeFloat32sInto decodes into the provided buffer, reusing it across
// rows during search scans.
func decodeFloat32sInto(buf []float32, b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf, nil
}

// dotProduct matches the collection's dot_product metric. Embedding models
// that return normalized vectors make this equivalent to cosine similarity.
func dotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot)
}

// idScoreHeap is a min-heap of idScore ordered by Score, used to track
// top-K candidates during the scan phase.
type idScoreHeap []idScore

func (h idScoreHeap) Len() int           { return len(h) }
func (h idScoreHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h idScoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idScoreHeap) Push(x any)        { *h = append(*h, x.(idScore)) }
func (h *idScoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
