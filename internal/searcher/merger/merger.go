// Package merger combines per-partition rankings into one top-K ranking.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
)

// Merge keeps the best limit documents across all partial rankings, ordered
// best first. A limit <= 0 keeps everything.
func Merge(partials [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		all := make([]ranker.ScoredDoc, 0)
		for _, results := range partials {
			all = append(all, results...)
		}
		ranker.Sort(all)
		return all
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, results := range partials {
		for _, doc := range results {
			heap.Push(h, doc)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	result := make([]ranker.ScoredDoc, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(ranker.ScoredDoc)
	}
	return result
}

// scoredDocHeap is a min-heap whose root is the worst-ranked document.
type scoredDocHeap []ranker.ScoredDoc

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool { return ranker.Before(h[j], h[i]) }

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ranker.ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
