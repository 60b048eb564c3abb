// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, duration parsing, and defaults

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

openai:
  api_key: "sk-test"
  assistant_id: "asst_abc123"
  org_id: "org-test"

relay:
  poll_interval: "500ms"
  poll_max_attempts: 10
  cancel_on_timeout: false

database:
  path: "./test.db"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q, want %q", cfg.OpenAI.APIKey, "sk-test")
	}
	if cfg.OpenAI.AssistantID != "asst_abc123" {
		t.Errorf("OpenAI.AssistantID = %q, want %q", cfg.OpenAI.AssistantID, "asst_abc123")
	}
	if cfg.Relay.PollInterval != 500*time.Millisecond {
		t.Errorf("Relay.PollInterval = %v, want %v", cfg.Relay.PollInterval, 500*time.Millisecond)
	}
	if cfg.Relay.PollMaxAttempts != 10 {
		t.Errorf("Relay.PollMaxAttempts = %d, want 10", cfg.Relay.PollMaxAttempts)
	}
	if cfg.Relay.CancelOnTimeoutEnabled() {
		t.Error("CancelOnTimeoutEnabled() = true, want false")
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "./test.db")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_PollingDefaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: ":memory:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want default %v", cfg.Relay.PollInterval, DefaultPollInterval)
	}
	if cfg.Relay.PollMaxAttempts != DefaultPollMaxAttempts {
		t.Errorf("PollMaxAttempts = %d, want default %d", cfg.Relay.PollMaxAttempts, DefaultPollMaxAttempts)
	}
	if !cfg.Relay.CancelOnTimeoutEnabled() {
		t.Error("CancelOnTimeoutEnabled() = false, want true by default")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_RELAY_API_KEY", "sk-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

openai:
  api_key: "${TEST_RELAY_API_KEY}"

database:
  path: ":memory:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("OpenAI.APIKey = %q, want %q", cfg.OpenAI.APIKey, "sk-from-env")
	}
}

func TestLoad_APIKeyEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: ":memory:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-fallback" {
		t.Errorf("OpenAI.APIKey = %q, want %q", cfg.OpenAI.APIKey, "sk-fallback")
	}
}

func TestLoad_MissingHTTPAddr(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: ":memory:"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for missing http_addr")
	}
	if !strings.Contains(err.Error(), "server.http_addr is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingDatabasePath(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for missing database path")
	}
	if !strings.Contains(err.Error(), "database.path is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

relay:
  poll_interval: "not-a-duration"

database:
  path: ":memory:"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid poll_interval")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingAssistantIDAllowed(t *testing.T) {
	// Absence of credentials is a per-request failure, not a load failure.
	configPath := writeConfig(t, `
server:
  http_addr: "localhost:8080"

database:
  path: ":memory:"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAI.AssistantID != "" {
		t.Errorf("AssistantID = %q, want empty", cfg.OpenAI.AssistantID)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "server: [not: valid")

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
