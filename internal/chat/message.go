package chat

import (
	"fmt"
	"strings"
)

// Message roles. The set is closed; Validate rejects anything else.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// PartText is the only part kind retrieval understands. Clients may send
// other kinds (files, tool output); they are carried through untouched and
// ignored when extracting the question.
const PartText = "text"

// Part is one typed content part of a message.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is a single turn in a conversation. The transcript arrives whole
// with every request; nothing is persisted server-side.
type Message struct {
	ID    string `json:"id,omitempty"`
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Validate checks that the message role belongs to the closed role set.
// It is called once at the HTTP boundary so the rest of the pipeline can
// treat roles as trusted.
func (m Message) Validate() error {
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
		return nil
	default:
		return fmt.Errorf("unknown role %q", m.Role)
	}
}

// ValidateAll validates every message in a transcript, reporting the index
// of the first invalid one.
func ValidateAll(msgs []Message) error {
	for i, m := range msgs {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// Text returns a single system or user message built from one text part.
func Text(role, text string) Message {
	return Message{Role: role, Parts: []Part{{Type: PartText, Text: text}}}
}

// LatestUserText returns the text of the most recent user message: its text
// parts joined with a single space, trimmed. Non-text parts are skipped.
// Returns "" when no user message exists or the latest one carries no text;
// the empty string is the caller's signal that there is nothing to answer.
func LatestUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != RoleUser {
			continue
		}
		var texts []string
		for _, p := range msgs[i].Parts {
			if p.Type == PartText {
				texts = append(texts, p.Text)
			}
		}
		return strings.TrimSpace(strings.Join(texts, " "))
	}
	return ""
}
