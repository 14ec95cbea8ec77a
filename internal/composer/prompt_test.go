package composer

import (
	"strings"
	"testing"
)

func TestSystemPrompt(t *testing.T) {
	docContext := "Max Verstappen won the 2023 F1 championship."
	question := "Who won the 2023 championship?"

	got := SystemPrompt(docContext, question)

	start := strings.Index(got, "START CONTENT")
	end := strings.Index(got, "END CONTENT")
	if start == -1 || end == -1 || start > end {
		t.Fatalf("prompt missing content delimiters:\n%s", got)
	}

	body := got[start+len("START CONTENT") : end]
	if strings.TrimSpace(body) != docContext {
		t.Errorf("content block = %q, want %q", strings.TrimSpace(body), docContext)
	}

	if !strings.Contains(got, "QUESTION: Who won the 2023 championship?") {
		t.Errorf("prompt missing exact question line:\n%s", got)
	}
}

func TestSystemPromptEmptyContext(t *testing.T) {
	got := SystemPrompt("", "any question")

	start := strings.Index(got, "START CONTENT")
	end := strings.Index(got, "END CONTENT")
	if start == -1 || end == -1 {
		t.Fatalf("prompt missing content delimiters:\n%s", got)
	}

	body := got[start+len("START CONTENT") : end]
	if strings.TrimSpace(body) != "" {
		t.Errorf("content block = %q, want empty", strings.TrimSpace(body))
	}

	if !strings.Contains(got, "QUESTION: any question") {
		t.Errorf("prompt missing question line:\n%s", got)
	}
}

func TestSystemPromptDeterministic(t *testing.T) {
	a := SystemPrompt("ctx", "q")
	b := SystemPrompt("ctx", "q")
	if a != b {
		t.Error("SystemPrompt is not deterministic")
	}
}
