package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.DebounceMillis != 500 {
		t.Errorf("DebounceMillis = %d, want 500", cfg.DebounceMillis)
	}
	if cfg.ContinuePrompt == "" {
		t.Error("ContinuePrompt should have a built-in default")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load missing file: %v", err)
	}
	if cfg.DebounceMillis != DefaultConfig().DebounceMillis {
		t.Error("Missing file should yield defaults")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "socket_path: /tmp/custom.sock\ndebounce_millis: 250\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SocketPath != "/tmp/custom.sock" {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.DebounceMillis != 250 {
		t.Errorf("DebounceMillis = %d, want 250", cfg.DebounceMillis)
	}
	// Untouched fields keep their defaults.
	if cfg.ContinuePrompt != DefaultConfig().ContinuePrompt {
		t.Error("Unset fields should keep defaults")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("socket_path: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Empty socket_path should fail validation")
	}
}

func TestDebounceInterval(t *testing.T) {
	cfg := &Config{DebounceMillis: 250}
	if got := cfg.DebounceInterval(); got != 250*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 250ms", got)
	}
}
