package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("axon.toml")
	if err != nil {
		t.Fatalf("expected default config when axon.toml is absent, got %v", err)
	}
	if cfg.Memory.Capacity != 200 || cfg.Safety.Level != "standard" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "custom.toml")); err == nil {
		t.Error("expected error for a missing explicit config path")
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axon.toml")
	if err := os.WriteFile(path, []byte("[safety]\nlevel = \"strict\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Safety.Level != "strict" {
		t.Errorf("expected strict, got %s", cfg.Safety.Level)
	}
}
