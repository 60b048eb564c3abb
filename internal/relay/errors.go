// ABOUTME: Error taxonomy for the relay pipeline
// ABOUTME: Maps internal failures to the short messages callers are allowed to see

package relay

import (
	"errors"
	"fmt"

	"github.com/2389/assistant-relay/internal/assistant"
)

// ErrNotConfigured is returned when the API key or assistant ID is missing.
// It fails the request before any remote call is attempted.
var ErrNotConfigured = errors.New("assistant not configured")

// ErrTimeout is returned when the poll loop exhausts its attempt budget
// without observing a terminal run status.
var ErrTimeout = errors.New("timed out waiting for assistant reply")

// ErrUnexpectedReply is returned when the completed run's newest message is
// missing, not from the assistant, or has no text content.
var ErrUnexpectedReply = errors.New("unexpected reply from assistant service")

// RunFailedError is returned when a run settles in a terminal status other
// than completed (failed, cancelled, or expired).
type RunFailedError struct {
	Status assistant.RunStatus
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("assistant run %s", e.Status)
}

// clientMessage converts a pipeline error into the short message written to
// the caller. All pipeline failures share status 500; the message is the only
// distinguishing detail, and it never carries upstream error text.
func clientMessage(err error) string {
	var runErr *RunFailedError
	switch {
	case errors.Is(err, ErrNotConfigured):
		return ErrNotConfigured.Error()
	case errors.Is(err, ErrTimeout):
		return ErrTimeout.Error()
	case errors.Is(err, ErrUnexpectedReply):
		return ErrUnexpectedReply.Error()
	case errors.As(err, &runErr):
		return runErr.Error()
	default:
		return "upstream request failed"
	}
}
