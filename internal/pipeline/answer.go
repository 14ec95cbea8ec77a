// Package pipeline orchestrates one chat request: extract the question,
// retrieve grounding context, compose the system prompt, and stream the
// generated reply. Retrieval failures degrade to an empty context instead
// of failing the request.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pitwall-ai/pitwall/internal/ai"
	"github.com/pitwall-ai/pitwall/internal/chat"
	"github.com/pitwall-ai/pitwall/internal/composer"
	"github.com/pitwall-ai/pitwall/internal/retrieval"
)

// ErrNoUserMessage is returned when the transcript holds no extractable
// user text. The HTTP layer maps it to a 400.
var ErrNoUserMessage = errors.New("no user message in transcript")

// AugmentMode decides what the generator receives.
type AugmentMode string

const (
	// ModeInject prepends the composed system prompt to the transcript.
	ModeInject AugmentMode = "inject"
	// ModeShadow composes the prompt for logging only and forwards the
	// transcript unchanged, matching the upstream behavior this service
	// was ported from.
	ModeShadow AugmentMode = "shadow"
)

// Answerer runs the query pipeline.
type Answerer struct {
	retriever *retrieval.Retriever
	generator ai.Generator
	mode      AugmentMode
	logger    *slog.Logger
}

// New creates an Answerer. An unrecognized mode falls back to ModeInject.
func New(retriever *retrieval.Retriever, generator ai.Generator, mode AugmentMode) *Answerer {
	if mode != ModeShadow {
		mode = ModeInject
	}
	return &Answerer{
		retriever: retriever,
		generator: generator,
		mode:      mode,
		logger:    slog.Default(),
	}
}

// Answer streams the reply for the transcript through emit. It returns
// ErrNoUserMessage before any output when there is nothing to answer;
// any other error comes from generation.
func (a *Answerer) Answer(ctx context.Context, msgs []chat.Message, emit ai.StreamFunc) error {
	question := chat.LatestUserText(msgs)
	if question == "" {
		return ErrNoUserMessage
	}

	docContext := ""
	records, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		// Best-effort policy: a retrieval outage degrades answer quality
		// but never blocks the user.
		a.logger.Warn("retrieval failed, answering without context", "error", err)
	} else {
		docContext = retrieval.Context(records)
	}

	prompt := composer.SystemPrompt(docContext, question)

	outgoing := msgs
	switch a.mode {
	case ModeInject:
		outgoing = append([]chat.Message{chat.Text(chat.RoleSystem, prompt)}, msgs...)
	case ModeShadow:
		a.logger.Debug("augmented prompt composed but not injected", "prompt_len", len(prompt))
	}

	a.logger.Debug("answering",
		"question_len", len(question),
		"chunks", len(records),
		"mode", string(a.mode),
	)

	return a.generator.Stream(ctx, outgoing, emit)
}
