// Package gateway orchestrates the assistant-relay server components.
//
// # Overview
//
// The gateway package is the central coordinator of the assistant-relay
// server. It owns the audit store, the assistant service client, the relay
// pipeline, and the HTTP server that exposes them.
//
// # HTTP API
//
//   - POST /api/send - Relay a message to the assistant and wait for the reply
//   - GET /api/threads - List locally known conversation threads
//   - GET /api/threads/{id}/runs - List recorded runs for a thread
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (requires configured credentials)
//
// # Lifecycle
//
// Start the gateway:
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	err = gw.Run(ctx)
//
// Run blocks until the context is canceled, then shuts down gracefully with
// a five second budget.
package gateway
