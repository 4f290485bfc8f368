// Package config loads the promptgate application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application-level settings: where the bridge socket lives,
// where persisted state goes, and UI timing knobs. The persisted auto-submit
// configuration itself lives in the store, not here.
type Config struct {
	// SocketPath is the Unix socket the bridge listens on.
	SocketPath string `yaml:"socket_path"`
	// DatabasePath is the SQLite database holding auto-submit config and
	// prompt templates.
	DatabasePath string `yaml:"database_path"`
	// LogPath is the log file location.
	LogPath string `yaml:"log_path"`
	// DebounceMillis is the quiet interval before a settings edit is persisted.
	DebounceMillis int `yaml:"debounce_millis"`
	// ContinuePrompt is the built-in prompt used by the "continue" source and
	// as the fallback when a custom template no longer resolves.
	ContinuePrompt string `yaml:"continue_prompt"`
	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		SocketPath:     filepath.Join(os.TempDir(), "promptgate.sock"),
		DatabasePath:   filepath.Join(dataDir, "promptgate.db"),
		LogPath:        filepath.Join(dataDir, "promptgate.log"),
		DebounceMillis: 500,
		ContinuePrompt: "Please continue with the current task.",
		Debug:          false,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".promptgate")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromHome loads configuration from ~/.promptgate/config.yaml.
func LoadFromHome() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfig(), nil
	}
	return Load(filepath.Join(home, ".promptgate", "config.yaml"))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.DebounceMillis < 1 {
		return fmt.Errorf("debounce_millis must be at least 1")
	}
	if c.ContinuePrompt == "" {
		return fmt.Errorf("continue_prompt must not be empty")
	}
	return nil
}

// DebounceInterval returns the settings persistence quiet interval.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
