package model

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Collection.Dir = dir
	cfg.Collection.DocList = filepath.Join(dir, "docs")
	cfg.Collection.Extension = ".stp"
	cfg.Output.Dir = dir

	writeFile(t, cfg.Collection.DocList, "A\nB\nC\n")
	writeFile(t, filepath.Join(dir, "A.stp"), "algorithm system")
	writeFile(t, filepath.Join(dir, "B.stp"), "computer")
	writeFile(t, cfg.Output.Path(cfg.Output.Vocabulary), "algorithm\ncomputer\nsystem\n")
	writeFile(t, cfg.Output.Path(cfg.Output.DocFrequency), "algorithm 1\ncomputer 1\nsystem 1\nbroken\n")
	writeFile(t, cfg.Output.Path(cfg.Output.TermFrequency), "1:1 3:1\n2:x 2:1\n\n")
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := fixture(t)
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	m, err := Load(context.Background(), cfg, Options{Tokens: true, Workers: 2}, met)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Size() != 3 || m.Name(2) != "B" || m.Name(4) != "" {
		t.Errorf("Size = %d Name(2) = %q", m.Size(), m.Name(2))
	}
	if len(m.Weighted) != 2 {
		t.Fatalf("weighted docs = %d, want 2", len(m.Weighted))
	}
	wantNorm := math.Sqrt(2) * math.Log(3)
	if math.Abs(m.Weighted[0].Norm-wantNorm) > 1e-12 {
		t.Errorf("norm(A) = %v, want %v", m.Weighted[0].Norm, wantNorm)
	}
	if !m.HasTokens() || len(m.Tokens) != 2 {
		t.Errorf("tokens = %+v", m.Tokens)
	}
	if got := testutil.ToFloat64(met.MalformedLinesTotal.WithLabelValues("document_frequency")); got != 1 {
		t.Errorf("malformed df = %v", got)
	}
	if got := testutil.ToFloat64(met.MalformedLinesTotal.WithLabelValues("term_frequency")); got != 1 {
		t.Errorf("malformed tf = %v", got)
	}
	if q := m.QueryVector([]string{"computer", "nothing"}); len(q) != 1 || q[0].TermID != 2 {
		t.Errorf("query vector = %v", q)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	cfg := fixture(t)
	if err := os.Remove(cfg.Output.Path(cfg.Output.TermFrequency)); err != nil {
		t.Fatal(err)
	}
	_, err := Load(context.Background(), cfg, Options{}, nil)
	if !apperrors.Is(err, apperrors.ErrMissingResource) {
		t.Errorf("err = %v, want ErrMissingResource", err)
	}
}

func TestLoadWithoutTokens(t *testing.T) {
	m, err := Load(context.Background(), fixture(t), Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.HasTokens() {
		t.Error("tokens should not be loaded")
	}
}

func TestLoadRejectsNonIntegerCounts(t *testing.T) {
	cfg := fixture(t)
	writeFile(t, cfg.Output.Path(cfg.Output.TermFrequency), "1:1 3:-3\n2:2.5 2:NaN\n\n")
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	m, err := Load(context.Background(), cfg, Options{}, met)
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(met.MalformedLinesTotal.WithLabelValues("term_frequency")); got != 3 {
		t.Errorf("malformed tf = %v, want 3", got)
	}
	if len(m.Weighted) != 1 || m.Weighted[0].ID != 1 {
		t.Fatalf("weighted = %+v", m.Weighted)
	}
	for _, e := range m.Weighted[0].Vector {
		if e.Weight <= 0 {
			t.Errorf("term %d has weight %v", e.TermID, e.Weight)
		}
	}
}
