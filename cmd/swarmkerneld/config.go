// ABOUTME: Daemon configuration, loaded from environment variables via caarlos0/env.
// ABOUTME: Field set mirrors the kernel's external-interfaces configuration table.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// config is the daemon's full runtime configuration. Every field binds to an
// environment variable; flags below only override Port, DBPath, and
// AuthConfigPath for convenience at the command line.
type config struct {
	Port     int    `env:"PORT" envDefault:"8000"`
	DBPath   string `env:"DB_PATH" envDefault:"swarmkernel.db"`
	MaxTasks int    `env:"MAX_TASKS_PER_SWARM" envDefault:"50"`

	CompleterKeys     []string `env:"COMPLETER_KEYS" envSeparator:","`
	CompleterModel    string   `env:"COMPLETER_MODEL" envDefault:"claude-sonnet-4-5"`
	CompleterProvider string   `env:"COMPLETER_PROVIDER"` // anthropic|openai|gemini; inferred from model if unset

	MCPURL        string `env:"MCP_URL"`
	MCPCredential string `env:"MCP_CREDENTIAL"`

	PollIntervalS int `env:"POLL_INTERVAL_S" envDefault:"10"`
	MaxRetries    int `env:"MAX_RETRIES" envDefault:"3"`
	BaseBackoffS  int `env:"BASE_BACKOFF_S" envDefault:"10"`
	MaxBackoffS   int `env:"MAX_BACKOFF_S" envDefault:"300"`

	// AuthConfigPath points at the YAML credential/capability table. Unset
	// means the daemon serves unauthenticated, which main() only allows with
	// -insecure.
	AuthConfigPath string `env:"AUTH_CONFIG_PATH"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

func (c config) pollInterval() time.Duration { return time.Duration(c.PollIntervalS) * time.Second }
func (c config) baseBackoff() time.Duration   { return time.Duration(c.BaseBackoffS) * time.Second }
func (c config) maxBackoff() time.Duration    { return time.Duration(c.MaxBackoffS) * time.Second }

// resolveProvider returns the explicit CompleterProvider, or infers one from
// CompleterModel's naming convention when unset.
func (c config) resolveProvider() string {
	if c.CompleterProvider != "" {
		return strings.ToLower(c.CompleterProvider)
	}
	model := strings.ToLower(c.CompleterModel)
	switch {
	case strings.HasPrefix(model, "gpt") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3"):
		return "openai"
	case strings.HasPrefix(model, "gemini"):
		return "gemini"
	default:
		return "anthropic"
	}
}
