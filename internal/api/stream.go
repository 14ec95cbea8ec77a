package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// streamEncoder frames generator output as server-sent events so the client
// can render the assistant reply as it arrives. Headers are written lazily
// on the first delta, leaving room for a plain error status when generation
// fails before producing anything.
type streamEncoder struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta,omitempty"`
}

func newStreamEncoder(w http.ResponseWriter) *streamEncoder {
	flusher, _ := w.(http.Flusher)
	return &streamEncoder{w: w, flusher: flusher}
}

// emit writes one text delta frame. Matches ai.StreamFunc.
func (e *streamEncoder) emit(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if !e.started {
		e.w.Header().Set("Content-Type", "text/event-stream")
		e.w.Header().Set("Cache-Control", "no-cache")
		e.w.Header().Set("Connection", "keep-alive")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	return e.writeEvent(streamEvent{Type: "text-delta", Delta: string(chunk)})
}

// finish terminates the stream cleanly.
func (e *streamEncoder) finish() {
	if !e.started {
		// Zero deltas is still a successful, well-formed stream.
		e.w.Header().Set("Content-Type", "text/event-stream")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	e.writeEvent(streamEvent{Type: "finish"})
	e.writeDone()
}

// fail terminates an already-started stream after a mid-stream error.
func (e *streamEncoder) fail() {
	e.writeEvent(streamEvent{Type: "error"})
	e.writeDone()
}

func (e *streamEncoder) writeEvent(ev streamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling stream event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	e.flush()
	return nil
}

func (e *streamEncoder) writeDone() {
	fmt.Fprint(e.w, "data: [DONE]\n\n")
	e.flush()
}

func (e *streamEncoder) flush() {
	if e.flusher != nil {
		e.flusher.Flush()
	}
}
