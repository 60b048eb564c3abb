// ABOUTME: Store interface and data types for assistant-relay persistence
// ABOUTME: Defines Thread and Run audit records and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateThread is returned when trying to create a thread that already exists
var ErrDuplicateThread = errors.New("thread already exists")

// Thread records a remote conversation thread this gateway has created or
// relayed through. The remote service owns the conversation content; this is
// an audit index only.
type Thread struct {
	ID            string
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// Run records the outcome of one assistant invocation for observability.
// Status mirrors the remote run status; Attempts is the number of status
// queries the poll loop issued before settling.
type Run struct {
	ID        string
	ThreadID  string
	Status    string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store defines the interface for thread and run audit persistence
type Store interface {
	// Threads
	CreateThread(ctx context.Context, thread *Thread) error
	GetThread(ctx context.Context, id string) (*Thread, error)
	TouchThread(ctx context.Context, id string, at time.Time) error
	ListThreads(ctx context.Context, limit int) ([]*Thread, error)

	// Runs
	RecordRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, id, status string, attempts int) error
	ListRunsByThread(ctx context.Context, threadID string, limit int) ([]*Run, error)

	// Close releases any resources held by the store
	Close() error
}
