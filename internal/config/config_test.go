package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Metrics.Listen != "127.0.0.1:9123" {
		t.Errorf("Expected default metrics listen 127.0.0.1:9123, got %s", cfg.Metrics.Listen)
	}
	if cfg.Dissector.Binary != "tshark" {
		t.Errorf("Expected default dissector tshark, got %s", cfg.Dissector.Binary)
	}
	if cfg.Dissector.Timeout != 30*time.Second {
		t.Errorf("Expected default dissector timeout 30s, got %s", cfg.Dissector.Timeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	configYAML := `
log:
  level: debug
  format: json
metrics:
  enabled: true
  listen: ":9999"
dissector:
  binary: /opt/wireshark/bin/tshark
  timeout: 5s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Expected debug/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != ":9999" {
		t.Errorf("Expected metrics on :9999, got %+v", cfg.Metrics)
	}
	if cfg.Dissector.Binary != "/opt/wireshark/bin/tshark" {
		t.Errorf("Expected custom dissector path, got %s", cfg.Dissector.Binary)
	}
	if cfg.Dissector.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.Dissector.Timeout)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Log.Level)
	}
	if cfg.Dissector.Binary != "tshark" {
		t.Errorf("Expected default dissector to survive partial config, got %s", cfg.Dissector.Binary)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("Expected error for missing config file")
	}
}
