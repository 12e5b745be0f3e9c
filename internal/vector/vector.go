// Package vector implements the sparse term-weight vectors shared by the
// frequency, weighting and ranking stages. A Vector holds only non-zero
// entries, ordered by ascending term ID.
package vector

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Entry is one non-zero component of a sparse vector.
type Entry struct {
	TermID int
	Weight float64
}

// Vector is a sparse vector with entries strictly ascending by TermID.
type Vector []Entry

// FromMap builds a Vector from a term ID → weight map, dropping zero weights.
func FromMap(m map[int]float64) Vector {
	v := make(Vector, 0, len(m))
	for id, w := range m {
		if w == 0 {
			continue
		}
		v = append(v, Entry{TermID: id, Weight: w})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].TermID < v[j].TermID })
	return v
}

// FromCounts builds a Vector from raw integer counts.
func FromCounts(m map[int]int) Vector {
	v := make(Vector, 0, len(m))
	for id, c := range m {
		if c == 0 {
			continue
		}
		v = append(v, Entry{TermID: id, Weight: float64(c)})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].TermID < v[j].TermID })
	return v
}

// Get returns the weight for termID, or 0 when absent.
func (v Vector) Get(termID int) float64 {
	i := sort.Search(len(v), func(i int) bool { return v[i].TermID >= termID })
	if i < len(v) && v[i].TermID == termID {
		return v[i].Weight
	}
	return 0
}

// Map returns the vector as a term ID → weight map.
func (v Vector) Map() map[int]float64 {
	m := make(map[int]float64, len(v))
	for _, e := range v {
		m[e.TermID] = e.Weight
	}
	return m
}

// Apply returns a new vector whose weights are fn(termID, weight). Entries
// mapped to zero are dropped, so a term with IDF 0 never materializes.
func (v Vector) Apply(fn func(termID int, weight float64) float64) Vector {
	out := make(Vector, 0, len(v))
	for _, e := range v {
		w := fn(e.TermID, e.Weight)
		if w == 0 {
			continue
		}
		out = append(out, Entry{TermID: e.TermID, Weight: w})
	}
	return out
}

// Norm is the L2 norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.Weight * e.Weight
	}
	if sum <= 0 {
		return 0
	}
	return math.Sqrt(sum)
}

// Dot computes the dot product by probing other for each entry of v. Callers
// pass the shorter vector (usually the query) as the receiver.
func (v Vector) Dot(other Vector) float64 {
	var sum float64
	for _, e := range v {
		if w := other.Get(e.TermID); w != 0 {
			sum += e.Weight * w
		}
	}
	return sum
}

// Formatter renders one weight in a serialized vector line.
type Formatter func(weight float64) string

// CountFormat renders weights as integers (raw term frequencies).
func CountFormat(w float64) string {
	return strconv.FormatInt(int64(math.Round(w)), 10)
}

// BinaryFormat renders every present term as 1.
func BinaryFormat(float64) string {
	return "1"
}

// FixedFormat renders weights with a fixed number of decimals.
func FixedFormat(precision int) Formatter {
	return func(w float64) string {
		return strconv.FormatFloat(w, 'f', precision, 64)
	}
}

// Format serializes v as space-separated "termID:weight" pairs.
func (v Vector) Format(f Formatter) string {
	var b strings.Builder
	for i, e := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(e.TermID))
		b.WriteByte(':')
		b.WriteString(f(e.Weight))
	}
	return b.String()
}

// Parse reads a serialized weight vector line. Tokens without a separator,
// with a bad term ID or with a weight that is not a finite number are skipped
// and counted in the returned bad total. Duplicate term IDs keep the last
// value.
func Parse(line string) (Vector, int) {
	return parse(line, func(s string) (float64, bool) {
		w, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return 0, false
		}
		return w, true
	})
}

// ParseCounts reads a term-frequency line. Counts must be positive integers;
// anything else is skipped and counted like Parse does.
func ParseCounts(line string) (Vector, int) {
	return parse(line, func(s string) (float64, bool) {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return 0, false
		}
		return float64(n), true
	})
}

func parse(line string, weight func(string) (float64, bool)) (Vector, int) {
	m := make(map[int]float64)
	bad := 0
	for _, chunk := range strings.Fields(line) {
		idStr, wStr, ok := strings.Cut(chunk, ":")
		if !ok {
			bad++
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil || id < 1 {
			bad++
			continue
		}
		w, ok := weight(wStr)
		if !ok {
			bad++
			continue
		}
		m[id] = w
	}
	return FromMap(m), bad
}
