package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.ProximityK != 5 {
		t.Errorf("ProximityK = %d, want 5", cfg.Search.ProximityK)
	}
	if cfg.Indexer.WeightPrecision != 6 {
		t.Errorf("WeightPrecision = %d, want 6", cfg.Indexer.WeightPrecision)
	}
	if got := cfg.Collection.DocListPath(); got != "Collection/Collection" {
		t.Errorf("DocListPath = %q", got)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	data := []byte(`
collection:
  dir: corpus
  docList: ""
  extension: .flt
search:
  defaultModel: proximity
  proximityK: 3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RE_OUTPUT_DIR", "/tmp/out")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collection.Extension != ".flt" {
		t.Errorf("Extension = %q", cfg.Collection.Extension)
	}
	if got := cfg.Collection.DocListPath(); got != filepath.Join("corpus", "corpus") {
		t.Errorf("DocListPath = %q", got)
	}
	if cfg.Search.DefaultModel != "proximity" || cfg.Search.ProximityK != 3 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("Output.Dir = %q", cfg.Output.Dir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Indexer.Workers = 0 }},
		{"zero k", func(c *Config) { c.Search.ProximityK = 0 }},
		{"unknown model", func(c *Config) { c.Search.DefaultModel = "bm25" }},
		{"no output dir", func(c *Config) { c.Output.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestShippedConfigKeepsEveryTerm(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Collection.DropTerms) != 0 {
		t.Errorf("DropTerms = %v, want none", cfg.Collection.DropTerms)
	}
	if cfg.Search.DefaultModel != "cosine" {
		t.Errorf("DefaultModel = %q", cfg.Search.DefaultModel)
	}
}
