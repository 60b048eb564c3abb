// ABOUTME: Gateway orchestrator that wires config, store, assistant client, and relay
// ABOUTME: Manages the HTTP server lifecycle and health endpoints

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/assistant-relay/internal/assistant"
	"github.com/2389/assistant-relay/internal/config"
	"github.com/2389/assistant-relay/internal/relay"
	"github.com/2389/assistant-relay/internal/store"
)

// Gateway orchestrates the assistant-relay server components.
// It owns the audit store, the assistant client, the relay pipeline, and the
// HTTP server that exposes them.
type Gateway struct {
	config     *config.Config
	store      store.Store
	relay      *relay.Relay
	httpServer *http.Server
	logger     *slog.Logger
}

// initStore creates the audit store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("RELAY_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	client := assistant.New(assistant.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		OrgID:      cfg.OpenAI.OrgID,
		Azure:      cfg.OpenAI.Azure,
		APIVersion: cfg.OpenAI.APIVersion,
	}, logger)

	rel := relay.New(client, s, relay.Options{
		AssistantID:     cfg.OpenAI.AssistantID,
		HasCredentials:  cfg.OpenAI.APIKey != "",
		PollInterval:    cfg.Relay.PollInterval,
		MaxAttempts:     cfg.Relay.PollMaxAttempts,
		CancelOnTimeout: cfg.Relay.CancelOnTimeoutEnabled(),
	}, logger)

	gw := &Gateway{
		config: cfg,
		store:  s,
		relay:  rel,
		logger: logger.With("component", "gateway"),
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)

	// Relay and audit API
	mux.HandleFunc("/api/send", rel.HandleSend)
	mux.HandleFunc("/api/threads", gw.handleListThreads)
	mux.HandleFunc("/api/threads/", gw.handleThreadRoutes)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if the
// server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the relay is configured to reach the
// assistant service. A gateway without credentials serves traffic but every
// relay request would fail, so it reports not ready.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if g.config.OpenAI.APIKey == "" || g.config.OpenAI.AssistantID == "" {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("assistant not configured"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
