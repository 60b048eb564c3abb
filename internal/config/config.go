// ABOUTME: Configuration loading and parsing for assistant-relay
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Default polling behavior when the relay section is absent or partial.
const (
	DefaultPollInterval    = time.Second
	DefaultPollMaxAttempts = 30
)

// Config represents the complete assistant-relay configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Relay    RelayConfig    `yaml:"relay"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// OpenAIConfig holds the remote assistant service credentials and routing.
// APIKey and AssistantID are deliberately not validated at load time: their
// absence is detected per request, so a misconfigured process still serves
// health checks and rejects relay requests with a clear error.
type OpenAIConfig struct {
	APIKey      string `yaml:"api_key"`
	AssistantID string `yaml:"assistant_id"`
	BaseURL     string `yaml:"base_url"`
	OrgID       string `yaml:"org_id"`
	Azure       bool   `yaml:"azure"`
	APIVersion  string `yaml:"api_version"`
}

// RelayConfig holds polling behavior for assistant runs
type RelayConfig struct {
	PollInterval    time.Duration `yaml:"-"`
	PollMaxAttempts int           `yaml:"poll_max_attempts"`

	// Raw string value for YAML unmarshaling
	PollIntervalRaw string `yaml:"poll_interval"`

	// CancelOnTimeout controls whether a run that outlives the poll budget
	// is cancelled remotely. Defaults to true when unset.
	CancelOnTimeout *bool `yaml:"cancel_on_timeout"`
}

// CancelOnTimeoutEnabled reports whether timed-out runs should be cancelled.
func (r RelayConfig) CancelOnTimeoutEnabled() bool {
	return r.CancelOnTimeout == nil || *r.CancelOnTimeout
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields and apply defaults
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Relay.PollMaxAttempts < 0 {
		return fmt.Errorf("relay.poll_max_attempts must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Relay.PollIntervalRaw != "" {
		cfg.Relay.PollInterval, err = time.ParseDuration(cfg.Relay.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Relay.PollIntervalRaw, err)
		}
	}

	return nil
}

// applyDefaults fills in values for fields the file omits
func applyDefaults(cfg *Config) {
	if cfg.Relay.PollInterval == 0 {
		cfg.Relay.PollInterval = DefaultPollInterval
	}
	if cfg.Relay.PollMaxAttempts == 0 {
		cfg.Relay.PollMaxAttempts = DefaultPollMaxAttempts
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
