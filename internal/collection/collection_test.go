package collection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSkipsMissingDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Collection"), "CACM-0001\n\nCACM-0002\nCACM-0003\n")
	writeFile(t, filepath.Join(dir, "CACM-0001.stp"), "algorithm system\n")
	writeFile(t, filepath.Join(dir, "CACM-0003.stp"), "")

	cfg := config.CollectionConfig{Dir: dir, DocList: filepath.Join(dir, "Collection")}
	c, err := NewLoader(cfg, ".stp", 2).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if diff := cmp.Diff([]string{"algorithm", "system"}, c.Docs[0].Tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	if !c.IsSkipped(2) || c.IsSkipped(1) || c.IsSkipped(3) {
		t.Errorf("skip set wrong: %+v", c.Skipped)
	}
	if diff := cmp.Diff([]string{"CACM-0002"}, c.SkippedNames()); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if !apperrors.Is(c.Skipped[0].Err, apperrors.ErrDocumentMissing) {
		t.Errorf("skip error = %v", c.Skipped[0].Err)
	}
	if got := len(c.Loaded()); got != 2 {
		t.Errorf("Loaded = %d, want 2", got)
	}
	if c.Docs[2].Tokens == nil || len(c.Docs[2].Tokens) != 0 {
		t.Errorf("empty document should load as empty, got %#v", c.Docs[2].Tokens)
	}
}

func TestLoadMissingResources(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.CollectionConfig
	}{
		{"missing dir", config.CollectionConfig{Dir: filepath.Join(dir, "nope"), DocList: filepath.Join(dir, "list")}},
		{"missing list", config.CollectionConfig{Dir: dir, DocList: filepath.Join(dir, "list")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(tt.cfg, ".stp", 1).Load(context.Background())
			if !apperrors.Is(err, apperrors.ErrMissingResource) {
				t.Fatalf("err = %v, want ErrMissingResource", err)
			}
		})
	}
}

func TestFromTokens(t *testing.T) {
	c := FromTokens([]string{"A", "B"}, [][]string{{"x"}, nil})
	if c.Len() != 2 || !c.IsSkipped(2) || len(c.Loaded()) != 1 {
		t.Errorf("unexpected collection %+v", c)
	}
}
