// ABOUTME: Tests for the gateway HTTP API and health endpoints
// ABOUTME: Exercises thread/run listing against an in-memory store

package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2389/assistant-relay/internal/config"
	"github.com/2389/assistant-relay/internal/store"
)

func newTestGateway(t *testing.T, cfg *config.Config) *Gateway {
	t.Helper()

	if cfg == nil {
		cfg = testConfig()
	}
	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { gw.store.Close() })
	return gw
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "localhost:0"
	cfg.Database.Path = ":memory:"
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.AssistantID = "asst_test"
	cfg.Relay.PollInterval = time.Millisecond
	cfg.Relay.PollMaxAttempts = 3
	return cfg
}

func seedThread(t *testing.T, gw *Gateway, id string, at time.Time) {
	t.Helper()

	err := gw.store.CreateThread(context.Background(), &store.Thread{
		ID:            id,
		CreatedAt:     at,
		LastMessageAt: at,
	})
	if err != nil {
		t.Fatalf("seeding thread %s: %v", id, err)
	}
}

func TestHandleListThreads(t *testing.T) {
	gw := newTestGateway(t, nil)

	base := time.Now().UTC().Truncate(time.Second)
	seedThread(t, gw, "thread_old", base.Add(-time.Hour))
	seedThread(t, gw, "thread_new", base)

	req := httptest.NewRequest("GET", "/api/threads", nil)
	w := httptest.NewRecorder()
	gw.handleListThreads(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Threads []threadInfo `json:"threads"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(resp.Threads))
	}
	if resp.Threads[0].ID != "thread_new" {
		t.Errorf("got first thread %q, want %q", resp.Threads[0].ID, "thread_new")
	}
}

func TestHandleListThreads_MethodNotAllowed(t *testing.T) {
	gw := newTestGateway(t, nil)

	req := httptest.NewRequest("POST", "/api/threads", nil)
	w := httptest.NewRecorder()
	gw.handleListThreads(w, req)

	if w.Code != 405 {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestHandleListThreads_LimitClamped(t *testing.T) {
	gw := newTestGateway(t, nil)
	seedThread(t, gw, "t1", time.Now().UTC())

	req := httptest.NewRequest("GET", "/api/threads?limit=99999", nil)
	w := httptest.NewRecorder()
	gw.handleListThreads(w, req)

	if w.Code != 200 {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestHandleListRuns(t *testing.T) {
	gw := newTestGateway(t, nil)

	now := time.Now().UTC().Truncate(time.Second)
	seedThread(t, gw, "thread_r", now)
	err := gw.store.RecordRun(context.Background(), &store.Run{
		ID:        "run_1",
		ThreadID:  "thread_r",
		Status:    "completed",
		Attempts:  2,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding run: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/threads/thread_r/runs", nil)
	w := httptest.NewRecorder()
	gw.handleThreadRoutes(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Runs []runInfo `json:"runs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(resp.Runs))
	}
	if resp.Runs[0].Status != "completed" || resp.Runs[0].Attempts != 2 {
		t.Errorf("got run %+v, want completed with 2 attempts", resp.Runs[0])
	}
}

func TestHandleListRuns_ThreadNotFound(t *testing.T) {
	gw := newTestGateway(t, nil)

	req := httptest.NewRequest("GET", "/api/threads/missing/runs", nil)
	w := httptest.NewRecorder()
	gw.handleThreadRoutes(w, req)

	if w.Code != 404 {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestHandleThreadRoutes_UnknownSubroute(t *testing.T) {
	gw := newTestGateway(t, nil)

	req := httptest.NewRequest("GET", "/api/threads/thread_x/messages", nil)
	w := httptest.NewRecorder()
	gw.handleThreadRoutes(w, req)

	if w.Code != 404 {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
