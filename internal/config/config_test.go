package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HalfLifeDays != 90 || cfg.DefaultLimit != 20 || cfg.SimilarityThreshold != 0.75 {
		t.Fatalf("defaults: %+v", cfg)
	}

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.HalfLifeDays != 90 {
		t.Fatalf("defaults after missing file: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recollect.yaml")
	data := `
half_life_days: 30
embedding:
  provider: ollama
  model: all-minilm
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HalfLifeDays != 30 {
		t.Errorf("half_life_days: %v", cfg.HalfLifeDays)
	}
	// Unset keys keep their defaults.
	if cfg.DefaultLimit != 20 {
		t.Errorf("default_limit: %d", cfg.DefaultLimit)
	}
	if cfg.Embedding.Provider != "ollama" || cfg.Embedding.Model != "all-minilm" {
		t.Errorf("embedding: %+v", cfg.Embedding)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []string{
		"half_life_days: -1",
		"default_limit: 0",
		"similarity_threshold: 1.5",
		"embedding:\n  provider: carrier-pigeon",
		"half_life_days: [not, a, number]",
	}
	for _, data := range cases {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}
