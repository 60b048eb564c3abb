// ABOUTME: HTTP handlers for the audit API
// ABOUTME: Serves thread and run records out of the local store

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2389/assistant-relay/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// threadInfo is the JSON shape for a thread audit record.
type threadInfo struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// runInfo is the JSON shape for a run audit record.
type runInfo struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// parseLimit reads the limit query parameter, falling back to the default
// and clamping to the maximum.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// handleListThreads handles GET /api/threads.
func (g *Gateway) handleListThreads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	threads, err := g.store.ListThreads(r.Context(), parseLimit(r))
	if err != nil {
		g.logger.Error("failed to list threads", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "failed to list threads")
		return
	}

	infos := make([]threadInfo, 0, len(threads))
	for _, t := range threads {
		infos = append(infos, threadInfo{
			ID:            t.ID,
			CreatedAt:     t.CreatedAt,
			LastMessageAt: t.LastMessageAt,
		})
	}
	sendJSON(w, http.StatusOK, map[string]any{"threads": infos})
}

// handleThreadRoutes dispatches /api/threads/{id}/... subroutes.
func (g *Gateway) handleThreadRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/threads/")

	if threadID, ok := strings.CutSuffix(path, "/runs"); ok && threadID != "" {
		g.handleListRuns(w, r, threadID)
		return
	}
	sendJSONError(w, http.StatusNotFound, "not found")
}

// handleListRuns handles GET /api/threads/{id}/runs.
func (g *Gateway) handleListRuns(w http.ResponseWriter, r *http.Request, threadID string) {
	if r.Method != http.MethodGet {
		sendJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if _, err := g.store.GetThread(r.Context(), threadID); err == store.ErrNotFound {
		sendJSONError(w, http.StatusNotFound, "thread not found")
		return
	} else if err != nil {
		g.logger.Error("failed to look up thread", "error", err, "thread_id", threadID)
		sendJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	runs, err := g.store.ListRunsByThread(r.Context(), threadID, parseLimit(r))
	if err != nil {
		g.logger.Error("failed to list runs", "error", err, "thread_id", threadID)
		sendJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	infos := make([]runInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, runInfo{
			ID:        run.ID,
			ThreadID:  run.ThreadID,
			Status:    run.Status,
			Attempts:  run.Attempts,
			CreatedAt: run.CreatedAt,
			UpdatedAt: run.UpdatedAt,
		})
	}
	sendJSON(w, http.StatusOK, map[string]any{"runs": infos})
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]string{"error": message})
}
