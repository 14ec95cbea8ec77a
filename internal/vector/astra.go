package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AstraStore talks to a DataStax Astra DB collection over the JSON Data API.
// Each request is a single-command JSON document POSTed to the namespace or
// collection endpoint; errors come back in an "errors" array rather than as
// HTTP status codes.
type AstraStore struct {
	endpoint   string
	token      string
	namespace  string
	collection string
	dimension  int
	metric     string
	client     *http.Client
}

// AstraConfig configures an AstraStore.
type AstraConfig struct {
	Endpoint   string // https://<db-id>-<region>.apps.astra.datastax.com
	Token      string // AstraCS:... application token
	Namespace  string
	Collection string
	Dimension  int           // defaults to DefaultDimension
	Metric     string        // defaults to MetricDotProduct
	Timeout    time.Duration // per-request; defaults to 15s
}

// NewAstraStore creates a store client. It performs no network calls; use
// EnsureCollection to create the collection.
func NewAstraStore(cfg AstraConfig) *AstraStore {
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricDotProduct
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &AstraStore{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		token:      cfg.Token,
		namespace:  cfg.Namespace,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		metric:     cfg.Metric,
		client:     &http.Client{Timeout: timeout},
	}
}

// apiError is one entry of the Data API "errors" array.
type apiError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type apiResponse struct {
	Status map[string]json.RawMessage `json:"status"`
	Data   struct {
		Documents []document `json:"documents"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type document struct {
	Vector []float32 `json:"$vector,omitempty"`
	Text   string    `json:"text"`
	Source string    `json:"source"`
}

// EnsureCollection creates the vector collection with the configured
// dimension and metric. "Already exists" is treated as success; any other
// Data API error is returned to the caller.
func (s *AstraStore) EnsureCollection(ctx context.Context) error {
	cmd := map[string]any{
		"createCollection": map[string]any{
			"name": s.collection,
			"options": map[string]any{
				"vector": map[string]any{
					"dimension": s.dimension,
					"metric":    s.metric,
				},
			},
		},
	}
	resp, err := s.post(ctx, s.namespaceURL(), cmd)
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	if err := firstError(resp); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}
	return nil
}

// Insert writes one record via insertOne.
func (s *AstraStore) Insert(ctx context.Context, rec Record) error {
	cmd := map[string]any{
		"insertOne": map[string]any{
			"document": document{Vector: rec.Vector, Text: rec.Text, Source: rec.Source},
		},
	}
	resp, err := s.post(ctx, s.collectionURL(), cmd)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	if err := firstError(resp); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// Search runs a find sorted by $vector similarity, capped at limit.
func (s *AstraStore) Search(ctx context.Context, vector []float32, limit int) ([]Record, error) {
	cmd := map[string]any{
		"find": map[string]any{
			"filter":  map[string]any{},
			"sort":    map[string]any{"$vector": vector},
			"options": map[string]any{"limit": limit},
		},
	}
	resp, err := s.post(ctx, s.collectionURL(), cmd)
	if err != nil {
		return nil, fmt.Errorf("searching collection: %w", err)
	}
	if err := firstError(resp); err != nil {
		return nil, fmt.Errorf("searching collection: %w", err)
	}

	records := make([]Record, 0, len(resp.Data.Documents))
	for _, d := range resp.Data.Documents {
		records = append(records, Record{Vector: d.Vector, Text: d.Text, Source: d.Source})
	}
	return records, nil
}

// Count returns the estimated number of documents in the collection.
func (s *AstraStore) Count(ctx context.Context) (int, error) {
	cmd := map[string]any{"estimatedDocumentCount": map[string]any{}}
	resp, err := s.post(ctx, s.collectionURL(), cmd)
	if err != nil {
		return 0, fmt.Errorf("counting collection: %w", err)
	}
	if err := firstError(resp); err != nil {
		return 0, fmt.Errorf("counting collection: %w", err)
	}
	var count int
	if raw, ok := resp.Status["count"]; ok {
		if err := json.Unmarshal(raw, &count); err != nil {
			return 0, fmt.Errorf("decoding count: %w", err)
		}
	}
	return count, nil
}

func (s *AstraStore) namespaceURL() string {
	return fmt.Sprintf("%s/api/json/v1/%s", s.endpoint, s.namespace)
}

func (s *AstraStore) collectionURL() string {
	return fmt.Sprintf("%s/api/json/v1/%s/%s", s.endpoint, s.namespace, s.collection)
}

func (s *AstraStore) post(ctx context.Context, url string, cmd any) (*apiResponse, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshaling command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("data API returned %s", resp.Status)
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// astraError carries the Data API error code so callers can distinguish
// "already exists" from real failures.
type astraError struct {
	code    string
	message string
}

func (e *astraError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return e.message
}

func firstError(resp *apiResponse) error {
	if len(resp.Errors) == 0 {
		return nil
	}
	return &astraError{code: resp.Errors[0].ErrorCode, message: resp.Errors[0].Message}
}

func isAlreadyExists(err error) bool {
	ae, ok := err.(*astraError)
	if !ok {
		return false
	}
	return ae.code == "COLLECTION_ALREADY_EXISTS" || strings.Contains(ae.message, "already exists")
}
