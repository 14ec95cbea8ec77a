package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitwall-ai/pitwall/internal/chat"
	"github.com/pitwall-ai/pitwall/internal/pipeline"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ChatRequest is the POST /api/chat body: the full conversation transcript.
type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// NewHandler returns the service's HTTP handler.
func NewHandler(answerer *pipeline.Answerer) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(answerer))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleChat(answerer *pipeline.Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := chat.ValidateAll(req.Messages); err != nil {
			http.Error(w, "invalid message: "+err.Error(), http.StatusBadRequest)
			return
		}

		enc := newStreamEncoder(w)
		err := answerer.Answer(r.Context(), req.Messages, enc.emit)

		switch {
		case err == nil:
			enc.finish()
		case errors.Is(err, pipeline.ErrNoUserMessage):
			http.Error(w, "No message provided", http.StatusBadRequest)
		case errors.Is(err, context.Canceled):
			// Client went away mid-stream; nothing left to write.
		case enc.started:
			// Partial output already flushed is not retracted.
			slog.Error("generation interrupted mid-stream", "error", err)
			enc.fail()
		default:
			slog.Error("chat request failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
