// ABOUTME: Tests for assistant client helpers
// ABOUTME: Covers run status terminality and message content flattening

package assistant

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestRunStatusTerminal(t *testing.T) {
	tests := []struct {
		status   RunStatus
		terminal bool
	}{
		{RunStatusQueued, false},
		{RunStatusInProgress, false},
		{RunStatus("requires_action"), false},
		{RunStatus("cancelling"), false},
		{RunStatusCompleted, true},
		{RunStatusFailed, true},
		{RunStatusCancelled, true},
		{RunStatusExpired, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("RunStatus(%q).Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestFlattenContent(t *testing.T) {
	parts := []openai.MessageContent{
		{Type: "text", Text: &openai.MessageText{Value: "first"}},
		{Type: "image_file"},
		{Type: "text", Text: &openai.MessageText{Value: "second"}},
	}

	if got := flattenContent(parts); got != "first\nsecond" {
		t.Errorf("flattenContent() = %q, want %q", got, "first\nsecond")
	}
}

func TestFlattenContent_Empty(t *testing.T) {
	if got := flattenContent(nil); got != "" {
		t.Errorf("flattenContent(nil) = %q, want empty", got)
	}
	if got := flattenContent([]openai.MessageContent{{Type: "image_file"}}); got != "" {
		t.Errorf("flattenContent(image only) = %q, want empty", got)
	}
}
