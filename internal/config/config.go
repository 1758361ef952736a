// Package config holds the narrow settings surface the orchestrator core
// reads. Full CLI argument parsing and config-file loading are out of scope
// (spec §1); this package only covers the handful of knobs the core itself
// consults, following the teacher's viper+yaml Config-struct style.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root settings struct for the delegation orchestrator core.
type Config struct {
	CLI       CLIConfig         `mapstructure:"cli" yaml:"cli"`
	Hooks     HooksConfig       `mapstructure:"hooks" yaml:"hooks"`
	EventPool EventPoolConfig   `mapstructure:"event_pool" yaml:"event_pool"`
	Hijacker  HijackerConfig    `mapstructure:"hijacker" yaml:"hijacker"`
	Fanout    FanoutConfig      `mapstructure:"fanout" yaml:"fanout"`
	Log       LogConfig         `mapstructure:"log" yaml:"log"`
	Tickets   TicketStoreConfig `mapstructure:"tickets" yaml:"tickets"`
}

// TicketStoreConfig selects and configures the reference ticket store
// implementation used to exercise the external create_ticket collaborator
// (spec.md §6) end to end.
type TicketStoreConfig struct {
	// Backend is "memory" (default) or "sqlite".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the sqlite database file path; defaults to
	// ~/.claude-mpm/tickets.db when empty and Backend is "sqlite".
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// CLIConfig configures the underlying LLM CLI launcher (C1).
type CLIConfig struct {
	ExecutablePath     string `mapstructure:"executable_path" yaml:"executable_path,omitempty"`
	Model              string `mapstructure:"model" yaml:"model"`
	SkipPermissions    bool   `mapstructure:"skip_permissions" yaml:"skip_permissions"`
	PMTimeout          string `mapstructure:"pm_timeout" yaml:"pm_timeout"`
	AgentTimeout       string `mapstructure:"agent_timeout" yaml:"agent_timeout"`
}

// GetPMTimeout parses PMTimeout, defaulting to 30s per spec §4.10 step 3.
func (c *CLIConfig) GetPMTimeout() time.Duration {
	return parseDurationOr(c.PMTimeout, 30*time.Second)
}

// GetAgentTimeout parses AgentTimeout, defaulting to 60s per spec §4.10.
func (c *CLIConfig) GetAgentTimeout() time.Duration {
	return parseDurationOr(c.AgentTimeout, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" || s == "0" || s == "none" || s == "infinite" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// HooksConfig configures the hook client (C7).
type HooksConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// GetTimeout parses Timeout, defaulting to 30s per spec §4.7.
func (c *HooksConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// EventPoolConfig configures the Socket.IO-style connection pool (C8).
type EventPoolConfig struct {
	Port           int    `mapstructure:"port" yaml:"port,omitempty"`
	AuthToken      string `mapstructure:"auth_token" yaml:"auth_token"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
}

// HijackerConfig configures the TODO hijacker (C6).
type HijackerConfig struct {
	InboxDir string `mapstructure:"inbox_dir" yaml:"inbox_dir,omitempty"`
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
}

// FanoutConfig configures the subprocess strategy's bounded worker pool (C10).
type FanoutConfig struct {
	// Workers is the fan-out pool size. Spec §9 open question: source varies
	// between 3 and 8; default 3 per the safer variant (see DESIGN.md).
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LogConfig mirrors pkg/logger.LogConfig so it can be loaded from the same
// file without importing pkg/logger into this package's yaml tags.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Default returns the configuration used when no file or env override is
// present.
func Default() Config {
	return Config{
		CLI: CLIConfig{
			Model:           "opus",
			SkipPermissions: true,
		},
		Hooks: HooksConfig{
			BaseURL: "http://localhost:5001",
		},
		EventPool: EventPoolConfig{
			AuthToken:      "dev-token",
			MaxConnections: 5,
		},
		Hijacker: HijackerConfig{
			Enabled: false,
		},
		Fanout: FanoutConfig{
			Workers: 3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Tickets: TicketStoreConfig{
			Backend: "memory",
		},
	}
}

// GetConfig returns the process-wide configuration.
func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetConfig replaces the process-wide configuration.
func SetConfig(c Config) {
	mu.Lock()
	defer mu.Unlock()
	current = c
}

// Load reads a YAML config file (if present) layered over Default(), with
// CLAUDE_MPM_SOCKETIO_PORT and CLAUDE_MPM_HOOKS_URL env overrides applied
// last per spec §6. A missing path is not an error — Default() applies.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("CLAUDE_MPM")
	v.AutomaticEnv()

	if port := v.GetString("SOCKETIO_PORT"); port != "" {
		if n, err := fmt.Sscanf(port, "%d", &cfg.EventPool.Port); err == nil && n == 1 {
			// parsed into cfg.EventPool.Port
		}
	}
	if url := os.Getenv("CLAUDE_MPM_HOOKS_URL"); url != "" {
		cfg.Hooks.BaseURL = url
	}

	return cfg, nil
}
