package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
)

// WeightedDoc is a document's TF-IDF vector with its precomputed L2 norm.
type WeightedDoc struct {
	ID     int
	Name   string
	Vector vector.Vector
	Norm   float64
}

// NewWeightedDoc computes the norm of v.
func NewWeightedDoc(id int, name string, v vector.Vector) WeightedDoc {
	return WeightedDoc{ID: id, Name: name, Vector: v, Norm: v.Norm()}
}

// CosineScore is dot(q, d) / (|q| * |d|). The dot product only visits the
// query's terms. Zero norms score 0.
func CosineScore(q vector.Vector, qNorm float64, d WeightedDoc) float64 {
	if qNorm == 0 || d.Norm == 0 {
		return 0
	}
	dot := q.Dot(d.Vector)
	if dot <= 0 {
		return 0
	}
	return math.Min(dot/(qNorm*d.Norm), 1)
}

// Cosine scores every document against the query vector and returns those
// with a positive score, best first. An empty or zero-norm query yields an
// empty ranking.
func Cosine(q vector.Vector, docs []WeightedDoc) []ScoredDoc {
	out := make([]ScoredDoc, 0)
	qNorm := q.Norm()
	if qNorm == 0 {
		return out
	}
	for _, d := range docs {
		if s := CosineScore(q, qNorm, d); s > 0 {
			out = append(out, ScoredDoc{DocID: d.ID, Name: d.Name, Score: s})
		}
	}
	Sort(out)
	return out
}
