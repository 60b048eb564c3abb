// ABOUTME: Tests for pipeline error classification
// ABOUTME: Verifies every error kind maps to its short caller-facing message

package relay

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/assistant-relay/internal/assistant"
)

func TestClientMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not configured",
			err:  ErrNotConfigured,
			want: "assistant not configured",
		},
		{
			name: "timeout",
			err:  ErrTimeout,
			want: "timed out waiting for assistant reply",
		},
		{
			name: "unexpected reply",
			err:  ErrUnexpectedReply,
			want: "unexpected reply from assistant service",
		},
		{
			name: "run failed",
			err:  &RunFailedError{Status: assistant.RunStatusFailed},
			want: "assistant run failed",
		},
		{
			name: "run expired",
			err:  &RunFailedError{Status: assistant.RunStatusExpired},
			want: "assistant run expired",
		},
		{
			name: "wrapped run failure",
			err:  fmt.Errorf("polling run: %w", &RunFailedError{Status: assistant.RunStatusCancelled}),
			want: "assistant run cancelled",
		},
		{
			name: "wrapped timeout",
			err:  fmt.Errorf("outer: %w", ErrTimeout),
			want: "timed out waiting for assistant reply",
		},
		{
			name: "upstream error",
			err:  errors.New("connection refused"),
			want: "upstream request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientMessage(tt.err))
		})
	}
}
