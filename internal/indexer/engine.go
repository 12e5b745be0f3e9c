// Package indexer runs the batch build: it loads the collection, assigns the
// vocabulary, computes frequencies and weights, inverts the index and writes
// every artifact plus a manifest.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/frequency"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/weighting"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

// Engine owns one build over one corpus. It holds no state between builds.
type Engine struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Result is what a build produced, in memory and on disk.
type Result struct {
	Collection   *collection.Collection
	Vocabulary   *vocabulary.Vocabulary
	DocFrequency *frequency.Table
	TermFreqs    []vector.Vector
	TFIDF        []vector.Vector
	Index        *index.InvertedIndex
	Manifest     *artifact.Manifest
	Duration     time.Duration
}

// NewEngine creates an Engine. m may be nil.
func NewEngine(cfg *config.Config, m *metrics.Metrics) *Engine {
	return &Engine{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}
}

// Build runs every stage in order. A missing collection directory or document
// list aborts; missing documents are skipped and reported in the result.
func (e *Engine) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{}
	workers := e.cfg.Indexer.Workers
	freqOpts := frequency.Options{Workers: workers, DropTerms: e.cfg.Collection.DropTerms}
	out := e.cfg.Output
	manifest := &artifact.Manifest{CreatedAt: time.Now().UTC()}

	var err error
	err = e.stage("load", func() error {
		res.Collection, err = collection.NewLoader(e.cfg.Collection, e.cfg.Collection.Extension, workers).Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	coll := res.Collection
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.Add(float64(len(coll.Loaded())))
		e.metrics.DocsSkippedTotal.Add(float64(len(coll.Skipped)))
	}

	err = e.stage("vocabulary", func() error {
		source, err := e.vocabularySource(ctx, coll)
		if err != nil {
			return err
		}
		docs := make([][]string, 0, source.Len())
		for _, d := range source.Loaded() {
			docs = append(docs, d.Tokens)
		}
		res.Vocabulary = vocabulary.Build(docs)
		return e.record(manifest, "vocabulary", out.Path(out.Vocabulary), func(p string) (int, error) {
			return res.Vocabulary.Save(p)
		})
	})
	if err != nil {
		return nil, err
	}
	vocab := res.Vocabulary
	if vocab.Size() == 0 {
		e.logger.Warn("vocabulary is empty", "documents", coll.Len())
	}
	if e.metrics != nil {
		e.metrics.VocabularySize.Set(float64(vocab.Size()))
	}

	err = e.stage("document_frequency", func() error {
		res.DocFrequency, err = frequency.DocumentFrequency(ctx, coll, vocab, freqOpts)
		if err != nil {
			return err
		}
		return e.record(manifest, "document_frequency", out.Path(out.DocFrequency), func(p string) (int, error) {
			return artifact.WriteDocFrequency(p, res.DocFrequency.Sorted())
		})
	})
	if err != nil {
		return nil, err
	}

	err = e.stage("term_frequency", func() error {
		res.TermFreqs, err = frequency.TermFrequencies(ctx, coll, vocab, freqOpts)
		if err != nil {
			return err
		}
		if err := e.record(manifest, "term_frequency", out.Path(out.TermFrequency), func(p string) (int, error) {
			return artifact.WriteVectors(p, res.TermFreqs, vector.CountFormat)
		}); err != nil {
			return err
		}
		return e.record(manifest, "binary", out.Path(out.Binary), func(p string) (int, error) {
			return artifact.WriteVectors(p, weighting.BinaryAll(res.TermFreqs), vector.BinaryFormat)
		})
	})
	if err != nil {
		return nil, err
	}

	err = e.stage("tfidf", func() error {
		idf := weighting.NewIDFTable(vocab, res.DocFrequency, coll.Len())
		res.TFIDF = idf.TFIDFAll(res.TermFreqs)
		return e.record(manifest, "tfidf", out.Path(out.TFIDF), func(p string) (int, error) {
			return artifact.WriteVectors(p, res.TFIDF, vector.FixedFormat(e.cfg.Indexer.WeightPrecision))
		})
	})
	if err != nil {
		return nil, err
	}

	err = e.stage("inverted_index", func() error {
		res.Index, err = index.FromCollection(ctx, coll, vocab, workers)
		if err != nil {
			return err
		}
		return e.record(manifest, "inverted_index", out.Path(out.InvertedIndex), func(p string) (int, error) {
			return res.Index.Save(p, vocab)
		})
	})
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.PostingsTotal.Set(float64(res.Index.NumPostings()))
	}

	err = e.stage("statistics", func() error {
		if err := e.record(manifest, "counter", out.Path(out.Counter), func(p string) (int, error) {
			return artifact.WriteCounter(p, frequency.CollectionFrequency(coll, e.cfg.Collection.DropTerms))
		}); err != nil {
			return err
		}
		if len(e.cfg.Indexer.SummaryTerms) == 0 {
			return nil
		}
		return e.record(manifest, "term_summary", out.Path(out.TermSummary), func(p string) (int, error) {
			return artifact.WriteTermSummary(p, frequency.Summarize(coll, e.cfg.Indexer.SummaryTerms))
		})
	})
	if err != nil {
		return nil, err
	}

	manifest.Documents = coll.Len()
	manifest.Skipped = coll.SkippedNames()
	manifest.Terms = vocab.Size()
	if err := artifact.WriteManifest(out.Path(out.Manifest), manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	res.Manifest = manifest
	res.Duration = time.Since(start)

	for _, s := range coll.Skipped {
		e.logger.Warn("skipped document", "doc", s.Name, "doc_id", s.DocID, "path", s.Path)
	}
	e.logger.Info("index build complete",
		"documents", coll.Len(),
		"skipped", len(coll.Skipped),
		"terms", vocab.Size(),
		"pairs", res.Index.NumPairs(),
		"postings", res.Index.NumPostings(),
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// vocabularySource returns the collection the vocabulary is drawn from. When a
// distinct vocabulary extension is configured, those files are loaded instead.
func (e *Engine) vocabularySource(ctx context.Context, coll *collection.Collection) (*collection.Collection, error) {
	ext := e.cfg.Collection.VocabularyExtension
	if ext == "" || ext == e.cfg.Collection.Extension {
		return coll, nil
	}
	return collection.NewLoader(e.cfg.Collection, ext, e.cfg.Indexer.Workers).Load(ctx)
}

func (e *Engine) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.BuildStageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	if err != nil {
		e.logger.Error("build stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s stage: %w", name, err)
	}
	e.logger.Debug("build stage done", "stage", name, "duration", elapsed)
	return nil
}

func (e *Engine) record(m *artifact.Manifest, name, path string, write func(string) (int, error)) error {
	lines, err := write(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	digest, err := artifact.Digest(path)
	if err != nil {
		return err
	}
	m.Artifacts = append(m.Artifacts, artifact.ManifestEntry{Name: name, Path: path, Lines: lines, Blake3: digest})
	e.logger.Debug("artifact written", "artifact", name, "path", path, "lines", lines)
	return nil
}
