package index

// Pair is one (term, document) occurrence emitted by the scan phase.
type Pair struct {
	TermID int
	DocID  int
}

// PostingList is a strictly increasing list of document IDs.
type PostingList []int

// Contains reports whether docID is in the list.
func (p PostingList) Contains(docID int) bool {
	lo, hi := 0, len(p)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if p[mid] < docID {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(p) && p[lo] == docID
}

// TermEntry is one inverted-index row.
type TermEntry struct {
	TermID   int
	Term     string
	Postings PostingList
}
