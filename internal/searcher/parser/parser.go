// Package parser turns free query text into terms. Documents arrive already
// lowercased and stemmed and are split on whitespace, so queries get the same
// lowercasing and whitespace splitting and nothing else: a token such as
// "x-y" stays one term on both sides.
package parser

import (
	"sort"
	"strings"
)

// Query is a parsed query. Terms keeps duplicates in input order; Set holds
// each distinct term once.
type Query struct {
	Terms    []string
	Set      map[string]struct{}
	RawQuery string
}

func Parse(query string) *Query {
	q := &Query{
		Terms:    make([]string, 0),
		Set:      make(map[string]struct{}),
		RawQuery: query,
	}
	for _, w := range strings.Fields(strings.ToLower(query)) {
		q.Terms = append(q.Terms, w)
		q.Set[w] = struct{}{}
	}
	return q
}

// Empty reports whether the query has no terms at all.
func (q *Query) Empty() bool {
	return len(q.Terms) == 0
}

// Distinct returns the distinct terms in ascending order.
func (q *Query) Distinct() []string {
	out := make([]string, 0, len(q.Set))
	for t := range q.Set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
