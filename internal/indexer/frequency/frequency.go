// Package frequency computes document frequencies, per-document term
// frequency vectors and collection-level term counts.
//
// Per-document work runs on a bounded worker pool; every worker writes only
// its own slot and the merge into shared tables happens after the pool
// drains, so the result is identical to a sequential pass.
package frequency

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
)

// Table maps a term to the number of documents containing it at least once.
type Table struct {
	counts map[string]int
}

// NewTable wraps an existing term → df map, e.g. one read back from disk.
func NewTable(counts map[string]int) *Table {
	if counts == nil {
		counts = make(map[string]int)
	}
	return &Table{counts: counts}
}

// DF returns the document frequency of term, 0 when it never occurs.
func (t *Table) DF(term string) int {
	return t.counts[term]
}

// Len is the number of terms with df > 0.
func (t *Table) Len() int {
	return len(t.counts)
}

// Sorted returns entries by df descending, ties by term ascending.
func (t *Table) Sorted() []artifact.TermCount {
	return sortCounts(t.counts)
}

// Options tunes the frequency passes.
type Options struct {
	Workers int
	// DropTerms never receive a document frequency; their IDF is therefore 0.
	DropTerms []string
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// DocumentFrequency counts, for every vocabulary term, how many loaded
// documents contain it. In-document duplicates count once; tokens outside the
// vocabulary are ignored.
func DocumentFrequency(ctx context.Context, c *collection.Collection, vocab *vocabulary.Vocabulary, opts Options) (*Table, error) {
	docs := c.Loaded()
	sets := make([][]string, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sets[i] = distinctTerms(doc.Tokens, vocab)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	drop := make(map[string]struct{}, len(opts.DropTerms))
	for _, t := range opts.DropTerms {
		drop[t] = struct{}{}
	}
	counts := make(map[string]int)
	for _, set := range sets {
		for _, term := range set {
			if _, skip := drop[term]; skip {
				continue
			}
			counts[term]++
		}
	}
	return &Table{counts: counts}, nil
}

func distinctTerms(tokens []string, vocab *vocabulary.Vocabulary) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := vocab.ID(tok); !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// TermFrequencies builds one raw-count vector per listed document, indexed by
// document ID - 1. Skipped documents get a nil vector; empty documents get an
// empty one.
func TermFrequencies(ctx context.Context, c *collection.Collection, vocab *vocabulary.Vocabulary, opts Options) ([]vector.Vector, error) {
	out := make([]vector.Vector, c.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, doc := range c.Docs {
		if c.IsSkipped(doc.ID) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Count(doc.Tokens, vocab)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count builds the term-frequency vector of one token sequence.
func Count(tokens []string, vocab *vocabulary.Vocabulary) vector.Vector {
	counts := make(map[int]int)
	for _, tok := range tokens {
		if id, ok := vocab.ID(tok); ok {
			counts[id]++
		}
	}
	return vector.FromCounts(counts)
}

// CollectionFrequency counts every token occurrence across loaded documents
// (not restricted to the vocabulary), sorted by count descending then term.
func CollectionFrequency(c *collection.Collection, dropTerms []string) []artifact.TermCount {
	counts := make(map[string]int)
	for _, doc := range c.Loaded() {
		for _, tok := range doc.Tokens {
			counts[tok]++
		}
	}
	for _, t := range dropTerms {
		delete(counts, t)
	}
	return sortCounts(counts)
}

// Summarize reports, for each requested term, its total occurrences, the
// number of documents containing it and the mean occurrences per containing
// document (0 when no document contains it).
func Summarize(c *collection.Collection, terms []string) []artifact.TermSummaryLine {
	rows := make([]artifact.TermSummaryLine, 0, len(terms))
	for _, term := range terms {
		row := artifact.TermSummaryLine{Term: term}
		for _, doc := range c.Loaded() {
			n := 0
			for _, tok := range doc.Tokens {
				if tok == term {
					n++
				}
			}
			if n > 0 {
				row.Documents++
				row.Occurrences += n
			}
		}
		if row.Documents > 0 {
			row.Mean = float64(row.Occurrences) / float64(row.Documents)
		}
		rows = append(rows, row)
	}
	return rows
}

func sortCounts(counts map[string]int) []artifact.TermCount {
	out := make([]artifact.TermCount, 0, len(counts))
	for term, n := range counts {
		out = append(out, artifact.TermCount{Term: term, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}
