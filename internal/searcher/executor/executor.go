// Package executor runs a parsed query against the search model. Documents are
// split into partitions that are scored concurrently; the partial rankings are
// merged into the final top-K list.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/model"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

type SearchResult struct {
	Query        string             `json:"query"`
	Model        ranker.Model       `json:"model"`
	K            int                `json:"k,omitempty"`
	TotalHits    int                `json:"total_hits"`
	Results      []ranker.ScoredDoc `json:"results"`
	UnknownTerms []string           `json:"unknown_terms,omitempty"`
}

// Options tunes one search. Zero values fall back to the executor defaults.
type Options struct {
	Model ranker.Model
	Limit int
	K     int
}

type Executor struct {
	model        *model.Model
	partitions   int
	defaultModel ranker.Model
	defaultLimit int
	defaultK     int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// Config carries the executor defaults.
type Config struct {
	Partitions   int
	DefaultModel ranker.Model
	DefaultLimit int
	DefaultK     int
}

// New creates an Executor over m. met may be nil.
func New(m *model.Model, cfg Config, met *metrics.Metrics) *Executor {
	if cfg.Partitions < 1 {
		cfg.Partitions = 1
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = ranker.ModelCosine
	}
	if cfg.DefaultK == 0 {
		cfg.DefaultK = ranker.DefaultProximityK
	}
	return &Executor{
		model:        m,
		partitions:   cfg.Partitions,
		defaultModel: cfg.DefaultModel,
		defaultLimit: cfg.DefaultLimit,
		defaultK:     cfg.DefaultK,
		metrics:      met,
		logger:       slog.Default().With("component", "query-executor"),
	}
}

// Resolve fills zero fields of opts with the defaults and validates them.
func (e *Executor) Resolve(opts Options) (Options, error) {
	if opts.Model == "" {
		opts.Model = e.defaultModel
	}
	if opts.Limit == 0 {
		opts.Limit = e.defaultLimit
	}
	if opts.Model == ranker.ModelProximity && opts.K == 0 {
		opts.K = e.defaultK
	}
	if _, err := ranker.ParseModel(string(opts.Model)); err != nil {
		return opts, apperrors.InvalidInput("%v", err)
	}
	if opts.Limit < 0 {
		return opts, apperrors.InvalidInput("limit must not be negative, got %d", opts.Limit)
	}
	if opts.Model == ranker.ModelProximity {
		if opts.K < 1 {
			return opts, apperrors.InvalidInput("proximity width k must be at least 1, got %d", opts.K)
		}
		if !e.model.HasTokens() {
			return opts, apperrors.InvalidInput("proximity model is unavailable: token files were not loaded")
		}
	} else {
		opts.K = 0
	}
	return opts, nil
}

// Execute scores every document for q. Empty queries and queries without a
// single known term produce an empty result, not an error.
func (e *Executor) Execute(ctx context.Context, q *parser.Query, opts Options) (*SearchResult, error) {
	start := time.Now()
	opts, err := e.Resolve(opts)
	if err != nil {
		return nil, err
	}
	result := &SearchResult{
		Query:        q.RawQuery,
		Model:        opts.Model,
		K:            opts.K,
		Results:      []ranker.ScoredDoc{},
		UnknownTerms: e.unknownTerms(q),
	}

	var partials [][]ranker.ScoredDoc
	switch opts.Model {
	case ranker.ModelCosine:
		qv := e.model.QueryVector(q.Terms)
		if len(qv) == 0 {
			break
		}
		partials, err = scorePartitions(ctx, partition(e.model.Weighted, e.partitions), func(docs []ranker.WeightedDoc) []ranker.ScoredDoc {
			return ranker.Cosine(qv, docs)
		})
	case ranker.ModelProximity:
		if q.Empty() {
			break
		}
		partials, err = scorePartitions(ctx, partition(e.model.Tokens, e.partitions), func(docs []ranker.TokenDoc) []ranker.ScoredDoc {
			return ranker.Proximity(q.Set, docs, opts.K)
		})
	}
	if err != nil {
		e.observe(opts.Model, "error", start, 0)
		return nil, fmt.Errorf("executing %s query: %w", opts.Model, err)
	}

	for _, p := range partials {
		result.TotalHits += len(p)
	}
	if len(partials) > 0 {
		result.Results = merger.Merge(partials, opts.Limit)
	}

	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	e.observe(opts.Model, resultType, start, len(result.Results))
	e.logger.Info("query executed",
		"query", q.RawQuery,
		"model", opts.Model,
		"k", opts.K,
		"terms", q.Terms,
		"hits", result.TotalHits,
		"results", len(result.Results),
	)
	return result, nil
}

// Name resolves a document ID to its name.
func (e *Executor) Name(docID int) string {
	return e.model.Name(docID)
}

func (e *Executor) unknownTerms(q *parser.Query) []string {
	var unknown []string
	for _, t := range q.Distinct() {
		if _, ok := e.model.Vocab.ID(t); !ok {
			unknown = append(unknown, t)
		}
	}
	return unknown
}

func (e *Executor) observe(m ranker.Model, resultType string, start time.Time, results int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(string(m), resultType).Inc()
	e.metrics.SearchLatency.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		e.metrics.SearchResultsCount.WithLabelValues(string(m)).Observe(float64(results))
	}
}

// scorePartitions runs score on each partition concurrently. Each partition
// checks ctx before it starts, so a cancelled query stops scheduling work.
func scorePartitions[T any](ctx context.Context, parts [][]T, score func([]T) []ranker.ScoredDoc) ([][]ranker.ScoredDoc, error) {
	out := make([][]ranker.ScoredDoc, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = score(part)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// partition splits items into at most n contiguous, nearly equal chunks.
func partition[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}
	parts := make([][]T, 0, n)
	for i := 0; i < n; i++ {
		lo := i * len(items) / n
		hi := (i + 1) * len(items) / n
		parts = append(parts, items[lo:hi])
	}
	return parts
}
