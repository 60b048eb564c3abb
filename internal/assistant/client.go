// ABOUTME: Client wrapper for the hosted assistant service (OpenAI Assistants API)
// ABOUTME: Exposes the five thread/run operations the relay consumes

package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// RunStatus is the remote run lifecycle status as reported by the service.
type RunStatus string

// Run statuses observed by the relay. A run eventually settles into exactly
// one of the terminal statuses absent external cancellation.
const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
	RunStatusExpired    RunStatus = "expired"
)

// Terminal reports whether the status will not change further.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// RoleAssistant is the author role of assistant-generated messages.
const RoleAssistant = "assistant"

// Run is the handle for one assistant invocation against a thread.
type Run struct {
	ID     string
	Status RunStatus
}

// Message is a single thread entry with its text content flattened.
type Message struct {
	ID   string
	Role string
	Text string
}

// Config holds credentials and routing for the assistant service.
type Config struct {
	APIKey     string
	BaseURL    string
	OrgID      string
	Azure      bool
	APIVersion string
}

// Client wraps the go-openai client behind the operations the relay needs.
// It is constructed once at process startup and shared by reference across
// requests; it holds no mutable state.
type Client struct {
	api    *openai.Client
	logger *slog.Logger
}

// New creates a Client for either the OpenAI or Azure OpenAI endpoint.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	var clientConfig openai.ClientConfig
	if cfg.Azure {
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
	} else {
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		clientConfig.OrgID = cfg.OrgID
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		logger: logger.With("component", "assistant"),
	}
}

// CreateThread creates a new remote conversation thread and returns its ID.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	return thread.ID, nil
}

// AddUserMessage attaches content to the thread as a user-role entry.
func (c *Client) AddUserMessage(ctx context.Context, threadID, content string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

// StartRun asks the service to execute the assistant against the thread.
func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (Run, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return Run{}, fmt.Errorf("creating run: %w", err)
	}
	return Run{ID: run.ID, Status: RunStatus(run.Status)}, nil
}

// GetRun re-queries the current status of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return Run{}, fmt.Errorf("retrieving run: %w", err)
	}
	return Run{ID: run.ID, Status: RunStatus(run.Status)}, nil
}

// CancelRun requests cancellation of a run that is still executing.
func (c *Client) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := c.api.CancelRun(ctx, threadID, runID); err != nil {
		return fmt.Errorf("cancelling run: %w", err)
	}
	return nil
}

// LatestMessage returns the most recently authored thread entry, or nil when
// the thread has no messages.
func (c *Client) LatestMessage(ctx context.Context, threadID string) (*Message, error) {
	limit := 1
	order := "desc"
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	msg := list.Messages[0]
	return &Message{
		ID:   msg.ID,
		Role: msg.Role,
		Text: flattenContent(msg.Content),
	}, nil
}

// flattenContent joins the text parts of a message, skipping non-text content
// such as image attachments.
func flattenContent(parts []openai.MessageContent) string {
	var b strings.Builder
	for _, part := range parts {
		if part.Text == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text.Value)
	}
	return b.String()
}
