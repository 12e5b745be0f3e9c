// Package weighting turns raw term frequencies into IDF, TF-IDF and binary
// presence vectors.
package weighting

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
)

// DFSource yields the document frequency of a term.
type DFSource interface {
	DF(term string) int
}

// IDF computes ln(n/df), or 0 when df <= 0 or n <= 0.
func IDF(n, df int) float64 {
	if df <= 0 || n <= 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df))
}

// IDFTable holds the IDF of every vocabulary term, indexed by term ID.
type IDFTable struct {
	idf []float64
	n   int
}

// NewIDFTable computes IDF for every term of vocab over a collection of n
// documents.
func NewIDFTable(vocab *vocabulary.Vocabulary, df DFSource, n int) *IDFTable {
	idf := make([]float64, vocab.Size()+1)
	for id := 1; id <= vocab.Size(); id++ {
		idf[id] = IDF(n, df.DF(vocab.Term(id)))
	}
	return &IDFTable{idf: idf, n: n}
}

// Get returns the IDF of termID, 0 for unknown IDs.
func (t *IDFTable) Get(termID int) float64 {
	if termID < 1 || termID >= len(t.idf) {
		return 0
	}
	return t.idf[termID]
}

// N is the collection size the table was computed for.
func (t *IDFTable) N() int {
	return t.n
}

// TFIDF multiplies each raw count by its term's IDF. Terms with IDF 0 are not
// materialized.
func (t *IDFTable) TFIDF(tf vector.Vector) vector.Vector {
	if tf == nil {
		return nil
	}
	return tf.Apply(func(id int, w float64) float64 {
		return w * t.Get(id)
	})
}

// TFIDFAll weights every document vector; nil (skipped) entries stay nil.
func (t *IDFTable) TFIDFAll(tfs []vector.Vector) []vector.Vector {
	out := make([]vector.Vector, len(tfs))
	for i, tf := range tfs {
		out[i] = t.TFIDF(tf)
	}
	return out
}

// Binary sets weight 1 for every present term.
func Binary(tf vector.Vector) vector.Vector {
	if tf == nil {
		return nil
	}
	return tf.Apply(func(int, float64) float64 { return 1 })
}

// BinaryAll converts every document vector to binary presence.
func BinaryAll(tfs []vector.Vector) []vector.Vector {
	out := make([]vector.Vector, len(tfs))
	for i, tf := range tfs {
		out[i] = Binary(tf)
	}
	return out
}

// Query builds a query vector: query-local term counts over vocabulary terms
// multiplied by the collection IDF. Unknown terms contribute nothing.
func (t *IDFTable) Query(terms []string, vocab *vocabulary.Vocabulary) vector.Vector {
	counts := make(map[int]int, len(terms))
	for _, term := range terms {
		if id, ok := vocab.ID(term); ok {
			counts[id]++
		}
	}
	return t.TFIDF(vector.FromCounts(counts))
}
