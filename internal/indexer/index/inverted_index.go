// Package index builds the inverted index with a three-phase sort-based
// inversion: scan every document into (termID, docID) pairs, sort the pairs,
// then sweep them once emitting one posting per distinct pair.
package index

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
)

// InvertedIndex maps every term ID 1..V to its postings. Terms that never
// occur map to an empty list.
type InvertedIndex struct {
	postings []PostingList
	pairs    int
}

// CollectPairs scans every loaded document once and emits a pair per
// vocabulary token occurrence. Skipped documents contribute nothing. Documents
// are scanned concurrently; the per-document slices are concatenated in
// document order.
func CollectPairs(ctx context.Context, c *collection.Collection, vocab *vocabulary.Vocabulary, workers int) ([]Pair, error) {
	if workers < 1 {
		workers = 1
	}
	perDoc := make([][]Pair, c.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range c.Docs {
		if c.IsSkipped(doc.ID) {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pairs := make([]Pair, 0, len(doc.Tokens))
			for _, tok := range doc.Tokens {
				if id, ok := vocab.ID(tok); ok {
					pairs = append(pairs, Pair{TermID: id, DocID: doc.ID})
				}
			}
			perDoc[i] = pairs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collecting pairs: %w", err)
	}
	total := 0
	for _, p := range perDoc {
		total += len(p)
	}
	all := make([]Pair, 0, total)
	for _, p := range perDoc {
		all = append(all, p...)
	}
	return all, nil
}

// Build sorts pairs by (termID, docID) and sweeps them into postings for a
// vocabulary of size numTerms. Pairs outside 1..numTerms are ignored. pairs
// is sorted in place.
func Build(pairs []Pair, numTerms int) *InvertedIndex {
	slices.SortFunc(pairs, func(a, b Pair) int {
		if a.TermID != b.TermID {
			return a.TermID - b.TermID
		}
		return a.DocID - b.DocID
	})

	idx := &InvertedIndex{postings: make([]PostingList, numTerms+1), pairs: len(pairs)}
	for id := 1; id <= numTerms; id++ {
		idx.postings[id] = PostingList{}
	}
	prev := Pair{}
	for _, p := range pairs {
		if p == prev {
			continue
		}
		prev = p
		if p.TermID < 1 || p.TermID > numTerms {
			continue
		}
		idx.postings[p.TermID] = append(idx.postings[p.TermID], p.DocID)
	}
	return idx
}

// FromCollection runs the scan, sort and sweep phases.
func FromCollection(ctx context.Context, c *collection.Collection, vocab *vocabulary.Vocabulary, workers int) (*InvertedIndex, error) {
	pairs, err := CollectPairs(ctx, c, vocab, workers)
	if err != nil {
		return nil, err
	}
	return Build(pairs, vocab.Size()), nil
}

// Postings returns the list for termID; unknown IDs yield nil.
func (x *InvertedIndex) Postings(termID int) PostingList {
	if termID < 1 || termID >= len(x.postings) {
		return nil
	}
	return x.postings[termID]
}

// NumTerms is V.
func (x *InvertedIndex) NumTerms() int {
	return len(x.postings) - 1
}

// NumPairs is the number of raw pairs fed to Build.
func (x *InvertedIndex) NumPairs() int {
	return x.pairs
}

// NumPostings is the total number of postings entries.
func (x *InvertedIndex) NumPostings() int {
	n := 0
	for _, p := range x.postings {
		n += len(p)
	}
	return n
}

// Entries returns one row per term ID in ascending order.
func (x *InvertedIndex) Entries(vocab *vocabulary.Vocabulary) []TermEntry {
	out := make([]TermEntry, 0, x.NumTerms())
	for id := 1; id <= x.NumTerms(); id++ {
		out = append(out, TermEntry{TermID: id, Term: vocab.Term(id), Postings: x.postings[id]})
	}
	return out
}

// Save writes "termID term docIDs..." lines.
func (x *InvertedIndex) Save(path string, vocab *vocabulary.Vocabulary) (int, error) {
	raw := make([][]int, len(x.postings))
	for i, p := range x.postings {
		raw[i] = p
	}
	return artifact.WriteIndex(path, vocab.Terms(), raw)
}

// Load reads an index written by Save for a vocabulary of numTerms terms.
// Corrupt lines and document IDs are skipped; postings are re-sorted and
// deduplicated so the list invariant holds even for hand-edited files.
func Load(path string, numTerms int) (*InvertedIndex, artifact.ParseStats, error) {
	lines, stats, err := artifact.ReadIndex(path, true)
	if err != nil {
		return nil, stats, err
	}
	var pairs []Pair
	for _, l := range lines {
		for _, d := range l.Docs {
			pairs = append(pairs, Pair{TermID: l.TermID, DocID: d})
		}
	}
	return Build(pairs, numTerms), stats, nil
}
