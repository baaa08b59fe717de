package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Addr != ":3000" {
		t.Errorf("unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Database.Path != "./topoedit.db" {
		t.Errorf("unexpected default db path %q", cfg.Database.Path)
	}
	if got := cfg.Editor.SettleDelayOrDefault(); got != 50*time.Millisecond {
		t.Errorf("unexpected default settle delay %s", got)
	}
	if got := cfg.Editor.SidecarTTLOrDefault(); got != time.Second {
		t.Errorf("unexpected default sidecar TTL %s", got)
	}
}

func TestLoadFromPath(t *testing.T) {
	content := `version: 1
server:
  addr: ":8080"
editor:
  settle_delay: 200ms
  debounce: 1s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, loadedFrom, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loadedFrom != path {
		t.Errorf("unexpected source path %q", loadedFrom)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr not loaded: %q", cfg.Server.Addr)
	}
	if got := cfg.Editor.SettleDelayOrDefault(); got != 200*time.Millisecond {
		t.Errorf("settle delay not loaded: %s", got)
	}
	if got := cfg.Editor.DebounceOrDefault(); got != time.Second {
		t.Errorf("debounce not loaded: %s", got)
	}
	// Missing sections fall back to defaults
	if cfg.Database.Path != "./topoedit.db" {
		t.Errorf("db path default not applied: %q", cfg.Database.Path)
	}
}

func TestLoadFromPathRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("editor:\n  settle_delay: soon\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestFindConfigPathEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvConfigPath, path)
	if got := FindConfigPath(); got != path {
		t.Errorf("env override not honored: %q", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9000"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Server.Addr != ":9000" {
		t.Errorf("addr lost in round trip: %q", loaded.Server.Addr)
	}
}
