package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := New()
	if cfg.Memory.Capacity != 200 {
		t.Errorf("expected default capacity 200, got %d", cfg.Memory.Capacity)
	}
	if cfg.Safety.Level != "standard" {
		t.Errorf("expected standard safety, got %q", cfg.Safety.Level)
	}
	if !cfg.Adaptation.Enabled {
		t.Error("expected adaptation enabled by default")
	}
	if cfg.Timeouts.Invocation != 30 {
		t.Errorf("expected 30s invocation timeout, got %d", cfg.Timeouts.Invocation)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axon.toml")
	doc := `
[agent]
id = "ops-agent"

[llm]
provider = "anthropic"
model = "claude-sonnet-4-5"

[memory]
capacity = 50

[safety]
level = "strict"

[health]
publish_enabled = true
nats_url = "nats://localhost:4222"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Agent.ID != "ops-agent" {
		t.Errorf("agent id: got %q", cfg.Agent.ID)
	}
	if cfg.Memory.Capacity != 50 {
		t.Errorf("capacity: got %d", cfg.Memory.Capacity)
	}
	if cfg.Safety.Level != "strict" {
		t.Errorf("safety: got %q", cfg.Safety.Level)
	}
	// Unset sections keep their defaults.
	if cfg.Timeouts.Generation != 60 {
		t.Errorf("generation timeout default lost: %d", cfg.Timeouts.Generation)
	}
	if !cfg.Health.PublishEnabled || cfg.Health.NATSURL == "" {
		t.Errorf("health config not loaded: %+v", cfg.Health)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetAPIKeyFallsBackToProviderDefault(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	l := LLMConfig{Provider: "anthropic"}
	if got := l.GetAPIKey(); got != "sk-test" {
		t.Errorf("expected provider default env, got %q", got)
	}

	t.Setenv("CUSTOM_KEY", "sk-custom")
	l = LLMConfig{Provider: "anthropic", APIKeyEnv: "CUSTOM_KEY"}
	if got := l.GetAPIKey(); got != "sk-custom" {
		t.Errorf("expected explicit env to win, got %q", got)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axon.toml")
	if err := os.WriteFile(path, []byte("[safety]\nlevel = \"standard\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got string
	w, err := NewWatcher(path, func(cfg *Config) {
		mu.Lock()
		got = cfg.Safety.Level
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[safety]\nlevel = \"strict\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		level := got
		mu.Unlock()
		if level == "strict" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher did not observe the config change")
}
