// Package vocabulary assigns dense term IDs. IDs run 1..V in ascending
// byte-wise lexicographic order of the term strings, so rebuilding from the
// same corpus always yields the same ID for the same term.
package vocabulary

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/artifact"
)

// Vocabulary is an immutable bidirectional term ↔ ID mapping.
type Vocabulary struct {
	terms []string
	ids   map[string]int
}

// Build collects the distinct terms of every token sequence and numbers them
// in sorted order. Empty input produces an empty vocabulary.
func Build(docs [][]string) *Vocabulary {
	seen := make(map[string]struct{})
	for _, tokens := range docs {
		for _, t := range tokens {
			if t == "" {
				continue
			}
			seen[t] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return fromSorted(terms)
}

// FromTerms builds a vocabulary from an already serialized listing: the term
// on position i (0-based) gets ID i+1. Duplicate entries are rejected since
// they would make the listing ambiguous.
func FromTerms(terms []string) (*Vocabulary, error) {
	v := &Vocabulary{terms: append([]string(nil), terms...), ids: make(map[string]int, len(terms))}
	for i, t := range v.terms {
		if _, dup := v.ids[t]; dup {
			return nil, fmt.Errorf("duplicate vocabulary term %q at line %d", t, i+1)
		}
		v.ids[t] = i + 1
	}
	return v, nil
}

func fromSorted(terms []string) *Vocabulary {
	v := &Vocabulary{terms: terms, ids: make(map[string]int, len(terms))}
	for i, t := range terms {
		v.ids[t] = i + 1
	}
	return v
}

// Load reads a vocabulary listing written by Save.
func Load(path string) (*Vocabulary, error) {
	terms, err := artifact.ReadVocabulary(path)
	if err != nil {
		return nil, err
	}
	return FromTerms(terms)
}

// Save writes the listing, one term per line in ID order.
func (v *Vocabulary) Save(path string) (int, error) {
	return artifact.WriteVocabulary(path, v.terms)
}

// ID returns the term's ID.
func (v *Vocabulary) ID(term string) (int, bool) {
	id, ok := v.ids[term]
	return id, ok
}

// Term returns the term for id, or "" when out of range.
func (v *Vocabulary) Term(id int) string {
	if id < 1 || id > len(v.terms) {
		return ""
	}
	return v.terms[id-1]
}

// Size is V, the number of terms.
func (v *Vocabulary) Size() int {
	return len(v.terms)
}

// Terms returns the terms in ID order. The slice must not be modified.
func (v *Vocabulary) Terms() []string {
	return v.terms
}
