package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// chdir is a stand-in for testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("unexpected default port %d", cfg.Port)
	}
	if cfg.Mode != "release" {
		t.Fatalf("unexpected default mode %q", cfg.Mode)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("unexpected default ping period %s", cfg.PingPeriod)
	}
	if len(cfg.ICEServers) != 1 || len(cfg.ICEServers[0].URLs) != 1 {
		t.Fatalf("expected one default STUN entry, got %v", cfg.ICEServers)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := `
mode: debug
port: 9090
event_limit: 5
event_interval: 2s
allowed_origins:
  - http://localhost:3000
ice_servers:
  - urls: ["stun:stun.example.org:3478"]
  - urls: ["turn:turn.example.org:3478"]
    username: u
    credential: p
`
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9090 {
		t.Fatalf("file values not applied: mode=%q port=%d", cfg.Mode, cfg.Port)
	}
	if cfg.EventLimit != 5 || cfg.EventInterval != 2*time.Second {
		t.Fatalf("rate limit values not applied")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("origins not applied: %v", cfg.AllowedOrigins)
	}
	if len(cfg.ICEServers) != 2 || cfg.ICEServers[1].Username != "u" {
		t.Fatalf("ice servers not applied: %v", cfg.ICEServers)
	}
	// Untouched keys keep their defaults.
	if cfg.ReadLimit != 32768 {
		t.Fatalf("unexpected read limit %d", cfg.ReadLimit)
	}
}
