package ranker

// TokenDoc is a document's raw token sequence.
type TokenDoc struct {
	ID     int
	Name   string
	Tokens []string
}

// ProximityScore sums, over every position of tokens, the strongest
// influence (k-|d|)/k reaching it from any occurrence of a query term, where
// d is the offset to that occurrence and |d| < k. Influence only decays with
// distance, so the strongest one always comes from the nearest occurrence;
// two sweeps find it for every position in linear time.
func ProximityScore(tokens []string, terms map[string]struct{}, k int) float64 {
	if k < 1 || len(terms) == 0 || len(tokens) == 0 {
		return 0
	}
	n := len(tokens)
	// nearest[i] is the distance from i to the closest occurrence, capped at k.
	nearest := make([]int, n)
	last := -k
	for i, tok := range tokens {
		if _, ok := terms[tok]; ok {
			last = i
		}
		nearest[i] = min(i-last, k)
	}
	next := n - 1 + k
	for i := n - 1; i >= 0; i-- {
		if _, ok := terms[tokens[i]]; ok {
			next = i
		}
		nearest[i] = min(nearest[i], next-i)
	}

	var score float64
	for _, d := range nearest {
		if d < k {
			score += float64(k-d) / float64(k)
		}
	}
	return score
}

// Proximity scores every document and returns those with a positive score,
// best first. An empty term set yields an empty ranking.
func Proximity(terms map[string]struct{}, docs []TokenDoc, k int) []ScoredDoc {
	out := make([]ScoredDoc, 0)
	if len(terms) == 0 || k < 1 {
		return out
	}
	for _, d := range docs {
		if s := ProximityScore(d.Tokens, terms, k); s > 0 {
			out = append(out, ScoredDoc{DocID: d.ID, Name: d.Name, Score: s})
		}
	}
	Sort(out)
	return out
}
