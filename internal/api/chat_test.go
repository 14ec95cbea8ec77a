package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/chat"
	"github.com/pitwall-ai/pitwall/internal/pipeline"
	"github.com/pitwall-ai/pitwall/internal/retrieval"
	"github.com/pitwall-ai/pitwall/internal/vector"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

type stubStore struct {
	records []vector.Record
	err     error
}

func (s *stubStore) EnsureCollection(ctx context.Context) error          { return nil }
func (s *stubStore) Insert(ctx context.Context, rec vector.Record) error { return nil }
func (s *stubStore) Count(ctx context.Context) (int, error)              { return 0, nil }
func (s *stubStore) Search(ctx context.Context, v []float32, limit int) ([]vector.Record, error) {
	return s.records, s.err
}

type scriptedGenerator struct {
	deltas  []string
	err     error
	failMid bool
}

func (g *scriptedGenerator) Stream(ctx context.Context, msgs []chat.Message, fn ai.StreamFunc) error {
	if g.err != nil && !g.failMid {
		return g.err
	}
	for _, d := range g.deltas {
		if err := fn(ctx, []byte(d)); err != nil {
			return err
		}
	}
	return g.err
}

func newTestHandler(store *stubStore, gen ai.Generator) http.Handler {
	answerer := pipeline.New(retrieval.New(stubEmbedder{}, store, 1), gen, pipeline.ModeInject)
	return NewHandler(answerer)
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	h.ServeHTTP(rr, req)
	return rr
}

const validBody = `{"messages":[{"role":"user","parts":[{"type":"text","text":"Who won the 2023 championship?"}]}]}`

func TestChatStreaming(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{deltas: []string{"Max ", "Verstappen"}})

	rr := postChat(t, h, validBody)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := rr.Body.String()
	for _, want := range []string{
		`data: {"type":"text-delta","delta":"Max "}`,
		`data: {"type":"text-delta","delta":"Verstappen"}`,
		`data: {"type":"finish"}`,
		"data: [DONE]",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q:\n%s", want, body)
		}
	}
}

func TestChatNoUserMessage(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{})

	tests := []struct {
		name string
		body string
	}{
		{"no user role", `{"messages":[{"role":"assistant","parts":[{"type":"text","text":"hi"}]}]}`},
		{"no text parts", `{"messages":[{"role":"user","parts":[{"type":"image"}]}]}`},
		{"empty messages", `{"messages":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postChat(t, h, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != "No message provided" {
				t.Errorf("body = %q, want %q", got, "No message provided")
			}
		})
	}
}

func TestChatInvalidBody(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{})

	rr := postChat(t, h, "{invalid")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestChatUnknownRole(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{})

	rr := postChat(t, h, `{"messages":[{"role":"tool","parts":[{"type":"text","text":"x"}]}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestChatStoreOutageStillStreams(t *testing.T) {
	store := &stubStore{err: errors.New("store unreachable")}
	h := newTestHandler(store, &scriptedGenerator{deltas: []string{"degraded answer"}})

	rr := postChat(t, h, validBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "degraded answer") {
		t.Errorf("stream missing generated output:\n%s", rr.Body.String())
	}
}

func TestChatGenerationFailureBeforeOutput(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{err: errors.New("model overloaded")})

	rr := postChat(t, h, validBody)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "Internal Server Error" {
		t.Errorf("body = %q, want %q", got, "Internal Server Error")
	}
}

func TestChatGenerationFailureMidStream(t *testing.T) {
	gen := &scriptedGenerator{deltas: []string{"partial "}, err: errors.New("connection reset"), failMid: true}
	h := newTestHandler(&stubStore{}, gen)

	rr := postChat(t, h, validBody)

	// Headers were already flushed with 200; the failure shows up in-band.
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"type":"text-delta","delta":"partial "`) {
		t.Errorf("partial output missing:\n%s", body)
	}
	if !strings.Contains(body, `{"type":"error"}`) {
		t.Errorf("error frame missing:\n%s", body)
	}
	if !strings.Contains(body, "data: [DONE]") {
		t.Errorf("stream not terminated:\n%s", body)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(&stubStore{}, &scriptedGenerator{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q", rr.Body.String())
	}
}
