// Package config loads the optional recollect configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds tunables for the recall engine and embedding layer. All
// fields have working defaults; the file is optional.
type Config struct {
	// HalfLifeDays controls recency decay.
	HalfLifeDays float64 `yaml:"half_life_days"`
	// DefaultLimit is the page size when a query supplies none.
	DefaultLimit int `yaml:"default_limit"`
	// SimilarityThreshold gates similarity clustering.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	Embedding EmbeddingConfig `yaml:"embedding"`
}

// EmbeddingConfig mirrors the RECOLLECT_EMBED_* environment variables;
// values set here take precedence over the environment.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // ollama, openai, or empty for disabled
	Model    string `yaml:"model"`
	URL      string `yaml:"url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HalfLifeDays:        90,
		DefaultLimit:        20,
		SimilarityThreshold: 0.75,
	}
}

// Load reads a YAML config file and merges it over the defaults. An empty
// path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.HalfLifeDays <= 0 {
		return fmt.Errorf("half_life_days must be positive, got %v", c.HalfLifeDays)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	switch c.Embedding.Provider {
	case "", "ollama", "openai":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	return nil
}
