package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/pitwall-ai/pitwall/internal/chat"
)

// StreamFunc receives one increment of generated text. Returning an error
// cancels the generation; the provider stops producing.
type StreamFunc func(ctx context.Context, chunk []byte) error

// Generator produces a streamed chat completion for a transcript.
type Generator interface {
	Stream(ctx context.Context, msgs []chat.Message, fn StreamFunc) error
}

// OpenAIGenerator implements Generator via the OpenAI chat completions API.
type OpenAIGenerator struct {
	llm llms.Model
}

// Stream converts the transcript to the provider schema and generates a
// completion, invoking fn for each content delta. Partial output already
// delivered is not retracted on mid-stream failure.
func (g *OpenAIGenerator) Stream(ctx context.Context, msgs []chat.Message, fn StreamFunc) error {
	content := ToModelMessages(msgs)
	if len(content) == 0 {
		return fmt.Errorf("generating: transcript has no usable messages")
	}

	_, err := g.llm.GenerateContent(ctx, content, llms.WithStreamingFunc(fn))
	if err != nil {
		return fmt.Errorf("generating completion: %w", err)
	}
	return nil
}

// ToModelMessages converts chat messages to the provider's message schema.
// Text parts are joined with a space; messages with no text are dropped.
func ToModelMessages(msgs []chat.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		var texts []string
		for _, p := range m.Parts {
			if p.Type == chat.PartText {
				texts = append(texts, p.Text)
			}
		}
		text := strings.TrimSpace(strings.Join(texts, " "))
		if text == "" {
			continue
		}
		out = append(out, llms.TextParts(roleToMessageType(m.Role), text))
	}
	return out
}

func roleToMessageType(role string) llms.ChatMessageType {
	switch role {
	case chat.RoleSystem:
		return llms.ChatMessageTypeSystem
	case chat.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
