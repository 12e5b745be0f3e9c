// Package model holds the read-only, in-memory state queries are scored
// against: TF-IDF document vectors with their norms, recomputed from the
// built vocabulary, DF and TF artifacts, and optionally the raw token
// sequences used by the proximity ranker.
package model

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/frequency"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/weighting"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

// Model is safe for concurrent reads once built.
type Model struct {
	Vocab    *vocabulary.Vocabulary
	IDF      *weighting.IDFTable
	Weighted []ranker.WeightedDoc
	Tokens   []ranker.TokenDoc
	names    []string
}

// Options selects what Load reads besides the vector artifacts.
type Options struct {
	// Tokens loads every document's token file for proximity ranking.
	Tokens  bool
	Workers int
}

// Build assembles a model. tfs and tokens are indexed by docID-1; a nil or
// short slice leaves the remaining documents without vectors or tokens.
// Documents whose TF-IDF vector has zero norm are left out of Weighted since
// they can never score.
func Build(names []string, vocab *vocabulary.Vocabulary, df weighting.DFSource, tfs []vector.Vector, tokens [][]string) *Model {
	idf := weighting.NewIDFTable(vocab, df, len(names))
	m := &Model{Vocab: vocab, IDF: idf, names: names}
	for i, name := range names {
		if i >= len(tfs) {
			break
		}
		d := ranker.NewWeightedDoc(i+1, name, idf.TFIDF(tfs[i]))
		if d.Norm > 0 {
			m.Weighted = append(m.Weighted, d)
		}
	}
	if tokens != nil {
		m.Tokens = make([]ranker.TokenDoc, 0, len(tokens))
		for i, toks := range tokens {
			if i >= len(names) || toks == nil {
				continue
			}
			m.Tokens = append(m.Tokens, ranker.TokenDoc{ID: i + 1, Name: names[i], Tokens: toks})
		}
	}
	return m
}

// Load reads the document list, vocabulary, DF and TF artifacts named in cfg.
// Any of them missing is fatal. Malformed records are skipped and counted.
// met may be nil.
func Load(ctx context.Context, cfg *config.Config, opts Options, met *metrics.Metrics) (*Model, error) {
	log := slog.Default().With("component", "search-model")
	out := cfg.Output

	names, err := collection.ReadDocList(cfg.Collection.DocListPath())
	if err != nil {
		return nil, err
	}
	vocab, err := vocabulary.Load(out.Path(out.Vocabulary))
	if err != nil {
		return nil, err
	}
	df, dfStats, err := artifact.ReadDocFrequency(out.Path(out.DocFrequency))
	if err != nil {
		return nil, err
	}
	tfs, tfStats, err := artifact.ReadCountVectors(out.Path(out.TermFrequency))
	if err != nil {
		return nil, err
	}
	if len(tfs) != len(names) {
		log.Warn("term frequency file does not match document list",
			"vectors", len(tfs),
			"documents", len(names),
		)
	}
	for name, stats := range map[string]artifact.ParseStats{"document_frequency": dfStats, "term_frequency": tfStats} {
		if stats.Malformed == 0 {
			continue
		}
		log.Warn("skipped malformed records", "artifact", name, "count", stats.Malformed, "error", stats.Err(name))
		if met != nil {
			met.MalformedLinesTotal.WithLabelValues(name).Add(float64(stats.Malformed))
		}
	}

	var tokens [][]string
	if opts.Tokens {
		coll, err := collection.NewLoader(cfg.Collection, cfg.Collection.Extension, opts.Workers).Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading token files: %w", err)
		}
		tokens = make([][]string, coll.Len())
		for _, d := range coll.Loaded() {
			tokens[d.ID-1] = d.Tokens
		}
	}

	m := Build(names, vocab, frequency.NewTable(df), tfs, tokens)
	log.Info("search model loaded",
		"documents", m.Size(),
		"terms", vocab.Size(),
		"weighted", len(m.Weighted),
		"with_tokens", opts.Tokens,
	)
	return m, nil
}

// Size is N, the number of listed documents.
func (m *Model) Size() int {
	return len(m.names)
}

// Name returns the document name for a 1-based ID, or "" if out of range.
func (m *Model) Name(docID int) string {
	if docID < 1 || docID > len(m.names) {
		return ""
	}
	return m.names[docID-1]
}

// HasTokens reports whether proximity ranking is available.
func (m *Model) HasTokens() bool {
	return m.Tokens != nil
}

// QueryVector weights query terms by the collection IDF.
func (m *Model) QueryVector(terms []string) vector.Vector {
	return m.IDF.Query(terms, m.Vocab)
}
