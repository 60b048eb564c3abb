// ABOUTME: Relay pipeline that forwards chat messages to the hosted assistant service
// ABOUTME: Ensures a thread, submits the message, runs the assistant, polls, and replies

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/2389/assistant-relay/internal/assistant"
	"github.com/2389/assistant-relay/internal/store"
)

// Client defines what the relay needs from the remote assistant service.
// This allows injecting scripted implementations for testing.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID, assistantID string) (assistant.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	LatestMessage(ctx context.Context, threadID string) (*assistant.Message, error)
}

// Options holds the per-process relay configuration.
type Options struct {
	AssistantID     string
	HasCredentials  bool
	PollInterval    time.Duration
	MaxAttempts     int
	CancelOnTimeout bool
}

// Relay forwards a single chat message through the assistant service and
// waits for the reply. It holds no mutable state; one instance is shared
// across requests.
type Relay struct {
	client Client
	store  store.Store
	opts   Options
	logger *slog.Logger
}

// New creates a Relay with the given client, audit store, and options.
func New(client Client, auditStore store.Store, opts Options, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client: client,
		store:  auditStore,
		opts:   opts,
		logger: logger.With("component", "relay"),
	}
}

// SendRequest is the JSON request body for POST /api/send.
type SendRequest struct {
	Message    string `json:"message"`
	ThreadID   string `json:"threadId,omitempty"`
	RenderHTML bool   `json:"renderHtml,omitempty"`
}

// SendResponse is the JSON response body on success.
type SendResponse struct {
	ThreadID             string `json:"threadId"`
	AssistantMessage     string `json:"assistantMessage"`
	AssistantMessageHTML string `json:"assistantMessageHtml,omitempty"`
}

// HandleSend handles POST /api/send requests.
// The pipeline is strictly sequential: ensure thread, submit message, start
// run, poll until terminal, fetch the newest message, respond. Every failure
// is logged with full detail and surfaced to the caller as a short message
// at status 500; only the method gate uses a different status.
func (r *Relay) HandleSend(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}

	// Request ID correlates all log lines for one relay request.
	logger := r.logger.With("request_id", uuid.NewString())

	var body SendRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		logger.Error("failed to decode request body", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := r.relay(req.Context(), logger, body)
	if err != nil {
		logger.Error("relay failed",
			"error", err,
			"thread_id", body.ThreadID,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": clientMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// relay executes the six pipeline steps and returns the assistant's reply.
func (r *Relay) relay(ctx context.Context, logger *slog.Logger, req SendRequest) (*SendResponse, error) {
	// Both settings are required; their absence fails before any remote call.
	if !r.opts.HasCredentials || r.opts.AssistantID == "" {
		return nil, ErrNotConfigured
	}

	// Step 1: ensure a conversation thread exists
	threadID := req.ThreadID
	if threadID == "" {
		id, err := r.client.CreateThread(ctx)
		if err != nil {
			return nil, fmt.Errorf("ensuring thread: %w", err)
		}
		threadID = id
		logger.Debug("thread created", "thread_id", threadID)
	}

	// Step 2: submit the user message
	if err := r.client.AddUserMessage(ctx, threadID, req.Message); err != nil {
		return nil, fmt.Errorf("submitting message: %w", err)
	}
	r.auditThread(threadID)

	// Step 3: start the assistant run
	run, err := r.client.StartRun(ctx, threadID, r.opts.AssistantID)
	if err != nil {
		return nil, fmt.Errorf("starting run: %w", err)
	}
	r.auditRunStarted(threadID, run)

	// Step 4: poll until the run reaches a terminal status
	status, attempts, pollErr := r.pollRun(ctx, threadID, run.ID)
	settled := string(status)
	if errors.Is(pollErr, ErrTimeout) {
		settled = "timed_out"
	}
	r.auditRunSettled(run.ID, settled, attempts)
	if pollErr != nil {
		return nil, pollErr
	}

	// Step 5: fetch the newest message, which must be the assistant's reply
	msg, err := r.client.LatestMessage(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("fetching reply: %w", err)
	}
	if msg == nil || msg.Role != assistant.RoleAssistant || msg.Text == "" {
		return nil, ErrUnexpectedReply
	}

	// Step 6: shape the response
	resp := &SendResponse{
		ThreadID:         threadID,
		AssistantMessage: msg.Text,
	}
	if req.RenderHTML {
		resp.AssistantMessageHTML = r.renderHTML(msg.Text)
	}

	logger.Debug("relay completed",
		"thread_id", threadID,
		"run_id", run.ID,
		"attempts", attempts,
	)
	return resp, nil
}

// pollRun re-queries the run status at a fixed interval until it reaches a
// terminal status or the attempt budget is spent. The attempt count bounds
// status queries: at most MaxAttempts queries are issued. On timeout the run
// is cancelled remotely (when enabled) so it does not keep executing unwatched.
func (r *Relay) pollRun(ctx context.Context, threadID, runID string) (assistant.RunStatus, int, error) {
	var status assistant.RunStatus
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		run, err := r.client.GetRun(ctx, threadID, runID)
		if err != nil {
			return status, attempt, fmt.Errorf("polling run: %w", err)
		}
		status = run.Status

		if status == assistant.RunStatusCompleted {
			return status, attempt, nil
		}
		if status.Terminal() {
			return status, attempt, &RunFailedError{Status: status}
		}

		if err := sleepCtx(ctx, r.opts.PollInterval); err != nil {
			return status, attempt, fmt.Errorf("waiting for run: %w", err)
		}
	}

	if r.opts.CancelOnTimeout {
		r.cancelRun(threadID, runID)
	}
	return status, r.opts.MaxAttempts, ErrTimeout
}

// cancelRun issues a best-effort remote cancel for a run the relay has
// stopped watching. Failures are logged, never surfaced.
func (r *Relay) cancelRun(threadID, runID string) {
	cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.CancelRun(cancelCtx, threadID, runID); err != nil {
		r.logger.Error("failed to cancel timed-out run",
			"error", err,
			"thread_id", threadID,
			"run_id", runID,
		)
		return
	}
	r.logger.Info("cancelled timed-out run", "thread_id", threadID, "run_id", runID)
}

// sleepCtx waits for the duration or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// renderHTML converts the assistant's markdown reply to HTML.
// A conversion failure is logged and yields an empty string; the plain-text
// reply is still returned to the caller.
func (r *Relay) renderHTML(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		r.logger.Error("failed to render reply as HTML", "error", err)
		return ""
	}
	return buf.String()
}

// auditThread records relay activity on a thread with a separate timeout
// context. Audit failures must not fail the request.
func (r *Relay) auditThread(threadID string) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.TouchThread(saveCtx, threadID, time.Now().UTC()); err != nil {
		r.logger.Error("failed to record thread activity",
			"error", err,
			"thread_id", threadID,
		)
	}
}

// auditRunStarted records a new run in the audit store.
func (r *Relay) auditRunStarted(threadID string, run assistant.Run) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	err := r.store.RecordRun(saveCtx, &store.Run{
		ID:        run.ID,
		ThreadID:  threadID,
		Status:    string(run.Status),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		r.logger.Error("failed to record run",
			"error", err,
			"thread_id", threadID,
			"run_id", run.ID,
		)
	}
}

// auditRunSettled records the final status and poll attempt count of a run.
func (r *Relay) auditRunSettled(runID, status string, attempts int) {
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.store.UpdateRun(saveCtx, runID, status, attempts); err != nil {
		r.logger.Error("failed to update run",
			"error", err,
			"run_id", runID,
			"status", status,
		)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}
