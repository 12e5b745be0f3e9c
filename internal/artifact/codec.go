package artifact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
)

// ParseStats counts what a reader accepted and what it skipped.
type ParseStats struct {
	Lines     int
	Malformed int
}

// Err reports skipped records as an error wrapping ErrMalformedLine, or nil
// when every record parsed.
func (s ParseStats) Err(name string) error {
	if s.Malformed == 0 {
		return nil
	}
	return fmt.Errorf("%s: %d of %d records skipped: %w", name, s.Malformed, s.Lines, apperrors.ErrMalformedLine)
}

// TermCount pairs a term with an integer statistic (document frequency,
// collection frequency).
type TermCount struct {
	Term  string
	Count int
}

// WriteVocabulary writes one term per line; line number is the term ID.
func WriteVocabulary(path string, terms []string) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		for _, t := range terms {
			if err := write(t); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadVocabulary returns the terms in file order. Blank lines are ignored.
func ReadVocabulary(path string) ([]string, error) {
	var terms []string
	err := ReadLines("vocabulary file", path, func(_ int, line string) error {
		if t := strings.TrimSpace(line); t != "" {
			terms = append(terms, t)
		}
		return nil
	})
	return terms, err
}

// WriteDocFrequency writes "term df" lines in the given order.
func WriteDocFrequency(path string, entries []TermCount) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		for _, e := range entries {
			if err := write(e.Term + " " + strconv.Itoa(e.Count)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadDocFrequency parses "term df" lines. Lines without exactly two fields or
// with a non-integer df are skipped.
func ReadDocFrequency(path string) (map[string]int, ParseStats, error) {
	df := make(map[string]int)
	var stats ParseStats
	err := ReadLines("document-frequency file", path, func(_ int, line string) error {
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		stats.Lines++
		parts := strings.Fields(line)
		if len(parts) != 2 {
			stats.Malformed++
			return nil
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			stats.Malformed++
			return nil
		}
		df[parts[0]] = n
		return nil
	})
	return df, stats, err
}

// WriteVectors writes one line per vector, in order. A nil vector produces an
// empty line so that line N always belongs to document N.
func WriteVectors(path string, vectors []vector.Vector, f vector.Formatter) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		for _, v := range vectors {
			if err := write(v.Format(f)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadVectors parses a weight vector file. Every line, blank or not, yields
// one vector; malformed "id:weight" tokens are dropped and counted.
func ReadVectors(path string) ([]vector.Vector, ParseStats, error) {
	return readVectors(path, vector.Parse)
}

// ReadCountVectors parses a term-frequency file, where every count must be a
// positive integer.
func ReadCountVectors(path string) ([]vector.Vector, ParseStats, error) {
	return readVectors(path, vector.ParseCounts)
}

func readVectors(path string, parse func(string) (vector.Vector, int)) ([]vector.Vector, ParseStats, error) {
	var vectors []vector.Vector
	var stats ParseStats
	err := ReadLines("vector file", path, func(_ int, line string) error {
		stats.Lines++
		v, bad := parse(line)
		stats.Malformed += bad
		vectors = append(vectors, v)
		return nil
	})
	return vectors, stats, err
}

// WriteIndex writes "termID term docID..." for every term, including terms
// with empty postings. postings is indexed by term ID (index 0 unused).
func WriteIndex(path string, terms []string, postings [][]int) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		var b strings.Builder
		for id := 1; id <= len(terms); id++ {
			b.Reset()
			b.WriteString(strconv.Itoa(id))
			b.WriteByte(' ')
			b.WriteString(terms[id-1])
			if id < len(postings) {
				for _, doc := range postings[id] {
					b.WriteByte(' ')
					b.WriteString(strconv.Itoa(doc))
				}
			}
			if err := write(b.String()); err != nil {
				return err
			}
		}
		return nil
	})
}

// IndexLine is one parsed inverted-index line.
type IndexLine struct {
	TermID int
	Term   string
	Docs   []int
}

// ReadIndex parses an inverted-index file. Lines with a bad term ID are
// skipped; bad document IDs are dropped from their line. withTerms selects
// between the "termID term docs..." and ID-only "termID docs..." layouts;
// terms may themselves be numeric so the layout cannot be sniffed.
func ReadIndex(path string, withTerms bool) ([]IndexLine, ParseStats, error) {
	var out []IndexLine
	var stats ParseStats
	err := ReadLines("inverted index file", path, func(_ int, line string) error {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		stats.Lines++
		id, err := strconv.Atoi(fields[0])
		if err != nil || id < 1 {
			stats.Malformed++
			return nil
		}
		entry := IndexLine{TermID: id}
		rest := fields[1:]
		if withTerms {
			if len(rest) == 0 {
				stats.Malformed++
				return nil
			}
			entry.Term = rest[0]
			rest = rest[1:]
		}
		entry.Docs = make([]int, 0, len(rest))
		for _, f := range rest {
			doc, err := strconv.Atoi(f)
			if err != nil || doc < 1 {
				stats.Malformed++
				continue
			}
			entry.Docs = append(entry.Docs, doc)
		}
		out = append(out, entry)
		return nil
	})
	return out, stats, err
}

// WriteCounter writes "rank count term" lines, rank starting at 1.
func WriteCounter(path string, entries []TermCount) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		for i, e := range entries {
			if err := write(fmt.Sprintf("%d %d %s", i+1, e.Count, e.Term)); err != nil {
				return err
			}
		}
		return nil
	})
}

// TermSummaryLine is one row of the term summary file.
type TermSummaryLine struct {
	Term        string
	Occurrences int
	Documents   int
	Mean        float64
}

// WriteTermSummary writes "term occurrences documents mean" lines with the
// mean at four decimals.
func WriteTermSummary(path string, rows []TermSummaryLine) (int, error) {
	return WriteLines(path, func(write func(string) error) error {
		for _, r := range rows {
			if err := write(fmt.Sprintf("%s %d %d %.4f", r.Term, r.Occurrences, r.Documents, r.Mean)); err != nil {
				return err
			}
		}
		return nil
	})
}
