// Package ranker scores documents against a query. Two independent models are
// provided: cosine similarity over TF-IDF vectors and a positional proximity
// kernel over raw token sequences.
package ranker

import (
	"fmt"
	"sort"
	"strings"
)

// Model names a ranking model.
type Model string

const (
	ModelCosine    Model = "cosine"
	ModelProximity Model = "proximity"
)

// DefaultProximityK is the influence width used when none is given.
const DefaultProximityK = 5

// ParseModel accepts a model name case-insensitively.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToLower(strings.TrimSpace(s))); m {
	case ModelCosine, ModelProximity:
		return m, nil
	default:
		return "", fmt.Errorf("unknown model %q (want %q or %q)", s, ModelCosine, ModelProximity)
	}
}

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Name  string  `json:"name,omitempty"`
	Score float64 `json:"score"`
}

// Before reports whether a ranks ahead of b: higher score first, then lower
// document ID.
func Before(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DocID < b.DocID
}

// Sort orders docs best first.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		return Before(docs[i], docs[j])
	})
}
