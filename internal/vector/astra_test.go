package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockDataAPI records the last command it received and replies with a canned
// Data API response body.
type mockDataAPI struct {
	lastPath    string
	lastToken   string
	lastCommand map[string]json.RawMessage
	respond     func(cmd map[string]json.RawMessage) string
}

func (m *mockDataAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.lastPath = r.URL.Path
		m.lastToken = r.Header.Get("Token")
		m.lastCommand = map[string]json.RawMessage{}
		json.NewDecoder(r.Body).Decode(&m.lastCommand)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(m.respond(m.lastCommand)))
	}
}

func newTestAstra(t *testing.T, mock *mockDataAPI) *AstraStore {
	t.Helper()
	srv := httptest.NewServer(mock.handler())
	t.Cleanup(srv.Close)
	return NewAstraStore(AstraConfig{
		Endpoint:   srv.URL,
		Token:      "AstraCS:test",
		Namespace:  "default_keyspace",
		Collection: "f1gpt",
		Dimension:  1536,
	})
}

func TestAstraEnsureCollection(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"status":{"ok":1}}`
	}}
	s := newTestAstra(t, mock)

	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}

	if mock.lastPath != "/api/json/v1/default_keyspace" {
		t.Errorf("path = %q, want namespace endpoint", mock.lastPath)
	}
	if mock.lastToken != "AstraCS:test" {
		t.Errorf("Token header = %q, want AstraCS:test", mock.lastToken)
	}
	if _, ok := mock.lastCommand["createCollection"]; !ok {
		t.Errorf("command = %v, want createCollection", mock.lastCommand)
	}
}

func TestAstraEnsureCollectionAlreadyExists(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"errors":[{"errorCode":"COLLECTION_ALREADY_EXISTS","message":"collection f1gpt already exists"}]}`
	}}
	s := newTestAstra(t, mock)

	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection with existing collection = %v, want nil", err)
	}
}

func TestAstraEnsureCollectionOtherErrorPropagates(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"errors":[{"errorCode":"UNAUTHENTICATED","message":"invalid token"}]}`
	}}
	s := newTestAstra(t, mock)

	if err := s.EnsureCollection(context.Background()); err == nil {
		t.Fatal("EnsureCollection with auth error = nil, want error")
	}
}

func TestAstraInsert(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"status":{"insertedIds":["abc"]}}`
	}}
	s := newTestAstra(t, mock)

	rec := Record{Vector: []float32{0.1, 0.2}, Text: "some chunk", Source: "https://example.com"}
	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if mock.lastPath != "/api/json/v1/default_keyspace/f1gpt" {
		t.Errorf("path = %q, want collection endpoint", mock.lastPath)
	}

	var cmd struct {
		InsertOne struct {
			Document struct {
				Vector []float32 `json:"$vector"`
				Text   string    `json:"text"`
				Source string    `json:"source"`
			} `json:"document"`
		} `json:"insertOne"`
	}
	raw, _ := json.Marshal(mock.lastCommand)
	if err := json.Unmarshal(raw, &cmd); err != nil {
		t.Fatalf("decoding recorded command: %v", err)
	}
	if cmd.InsertOne.Document.Text != "some chunk" {
		t.Errorf("inserted text = %q, want %q", cmd.InsertOne.Document.Text, "some chunk")
	}
	if cmd.InsertOne.Document.Source != "https://example.com" {
		t.Errorf("inserted source = %q", cmd.InsertOne.Document.Source)
	}
	if len(cmd.InsertOne.Document.Vector) != 2 {
		t.Errorf("inserted vector length = %d, want 2", len(cmd.InsertOne.Document.Vector))
	}
}

func TestAstraSearch(t *testing.T) {
	mock := &mockDataAPI{respond: func(cmd map[string]json.RawMessage) string {
		if _, ok := cmd["find"]; !ok {
			return `{"errors":[{"message":"expected find"}]}`
		}
		return `{"data":{"documents":[
			{"text":"Max Verstappen won the 2023 F1 championship.","source":"https://en.wikipedia.org/wiki/Formula_One"},
			{"text":"Second chunk.","source":"https://example.com"}
		]}}`
	}}
	s := newTestAstra(t, mock)

	got, err := s.Search(context.Background(), []float32{0.5, 0.5}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search returned %d records, want 2", len(got))
	}
	if got[0].Text != "Max Verstappen won the 2023 F1 championship." {
		t.Errorf("first record text = %q", got[0].Text)
	}
}

func TestAstraSearchEmpty(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"data":{"documents":[]}}`
	}}
	s := newTestAstra(t, mock)

	got, err := s.Search(context.Background(), []float32{1}, 10)
	if err != nil {
		t.Fatalf("Search on empty collection: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Search returned %d records, want 0", len(got))
	}
}

func TestAstraCount(t *testing.T) {
	mock := &mockDataAPI{respond: func(map[string]json.RawMessage) string {
		return `{"status":{"count":42}}`
	}}
	s := newTestAstra(t, mock)

	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 42 {
		t.Errorf("Count = %d, want 42", count)
	}
}
