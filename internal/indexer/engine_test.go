package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

// writeCorpus lays out docs A and B plus a listed but absent doc C.
func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Collection")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"Collection": "A\nB\nC\n",
		"A.stp":      "algorithm system\n",
		"B.stp":      "computer\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func testConfig(t *testing.T, collectionDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Collection.Dir = collectionDir
	cfg.Collection.DocList = ""
	cfg.Output.Dir = t.TempDir()
	cfg.Indexer.Workers = 2
	cfg.Indexer.SummaryTerms = []string{"system", "absent"}
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	var lines []string
	if err := artifact.ReadLines("test artifact", path, func(_ int, line string) error {
		lines = append(lines, line)
		return nil
	}); err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return lines
}

func TestBuildWritesArtifacts(t *testing.T) {
	cfg := testConfig(t, writeCorpus(t))
	met := metrics.New(prometheus.NewRegistry())
	res, err := NewEngine(cfg, met).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out := cfg.Output

	want := map[string][]string{
		out.Vocabulary:    {"algorithm", "computer", "system"},
		out.DocFrequency:  {"algorithm 1", "computer 1", "system 1"},
		out.TermFrequency: {"1:1 3:1", "2:1", ""},
		out.Binary:        {"1:1 3:1", "2:1", ""},
		out.TFIDF:         {"1:1.098612 3:1.098612", "2:1.098612", ""},
		out.InvertedIndex: {"1 algorithm 1", "2 computer 2", "3 system 1"},
		out.Counter:       {"1 1 algorithm", "2 1 computer", "3 1 system"},
		out.TermSummary:   {"system 1 1 1.0000", "absent 0 0 0.0000"},
	}
	for name, lines := range want {
		if diff := cmp.Diff(lines, readLines(t, out.Path(name))); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	if diff := cmp.Diff([]string{"C"}, res.Collection.SkippedNames()); diff != "" {
		t.Errorf("skipped (-want +got):\n%s", diff)
	}
	m, err := artifact.ReadManifest(out.Path(out.Manifest))
	if err != nil {
		t.Fatal(err)
	}
	if m.Documents != 3 || m.Terms != 3 || len(m.Artifacts) != 8 {
		t.Errorf("manifest documents=%d terms=%d artifacts=%d", m.Documents, m.Terms, len(m.Artifacts))
	}
	if diff := cmp.Diff([]string{"C"}, m.Skipped); diff != "" {
		t.Errorf("manifest skipped (-want +got):\n%s", diff)
	}

	if got := testutil.ToFloat64(met.DocsSkippedTotal); got != 1 {
		t.Errorf("skipped counter = %v", got)
	}
	if got := testutil.ToFloat64(met.VocabularySize); got != 3 {
		t.Errorf("vocabulary gauge = %v", got)
	}
	if got := testutil.ToFloat64(met.PostingsTotal); got != 3 {
		t.Errorf("postings gauge = %v", got)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	dir := writeCorpus(t)
	digests := func(cfg *config.Config) map[string]string {
		res, err := NewEngine(cfg, nil).Build(context.Background())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		out := make(map[string]string, len(res.Manifest.Artifacts))
		for _, a := range res.Manifest.Artifacts {
			out[a.Name] = a.Blake3
		}
		return out
	}

	first := digests(testConfig(t, dir))
	second := digests(testConfig(t, dir))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("digests differ between builds (-first +second):\n%s", diff)
	}

	// Digests cover decompressed content, so a compressed build matches too.
	compressed := testConfig(t, dir)
	compressed.Output.TFIDF = "vecteurTFIDF.txt.zst"
	third := digests(compressed)
	if first["tfidf"] != third["tfidf"] {
		t.Errorf("compressed tfidf digest %s, plain %s", third["tfidf"], first["tfidf"])
	}
	lines := readLines(t, compressed.Output.Path(compressed.Output.TFIDF))
	if len(lines) != 3 || lines[1] != "2:1.098612" {
		t.Errorf("compressed tfidf lines = %q", lines)
	}
}

func TestBuildMissingCollection(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "nope"))
	_, err := NewEngine(cfg, nil).Build(context.Background())
	if !apperrors.Is(err, apperrors.ErrMissingResource) {
		t.Fatalf("err = %v, want missing resource", err)
	}
	if code := apperrors.ExitCode(err); code != 3 {
		t.Errorf("exit code = %d", code)
	}
}

func TestBuildDropTerms(t *testing.T) {
	cfg := testConfig(t, writeCorpus(t))
	cfg.Collection.DropTerms = []string{"system"}
	res, err := NewEngine(cfg, nil).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := res.TFIDF[0].Get(3); got != 0 {
		t.Errorf("dropped term weighted %v", got)
	}
	if diff := cmp.Diff([]string{"algorithm 1", "computer 1"}, readLines(t, cfg.Output.Path(cfg.Output.DocFrequency))); diff != "" {
		t.Errorf("df (-want +got):\n%s", diff)
	}
}
