package analytics

import (
	"sort"
	"sync"
	"time"
)

const maxLatencySamples = 10000

type AggregatedStats struct {
	TotalSearches     int64            `json:"total_searches"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	ZeroResultCount   int64            `json:"zero_result_count"`
	ByModel           map[string]int64 `json:"by_model"`
	AvgLatencyMs      float64          `json:"avg_latency_ms"`
	P50LatencyMs      int64            `json:"p50_latency_ms"`
	P95LatencyMs      int64            `json:"p95_latency_ms"`
	P99LatencyMs      int64            `json:"p99_latency_ms"`
	TopQueries        []QueryCount     `json:"top_queries"`
	ZeroResultQueries []QueryCount     `json:"zero_result_queries"`
	UnknownTerms      []QueryCount     `json:"unknown_terms"`
	QueriesPerMinute  float64          `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds search events into running statistics. Latencies are kept
// in a ring of the most recent samples.
type Aggregator struct {
	mu                sync.Mutex
	totalSearches     int64
	cacheHits         int64
	zeroResults       int64
	byModel           map[string]int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	unknownTerms      map[string]int64
	startTime         time.Time
	topN              int
}

func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		byModel:           make(map[string]int64),
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		unknownTerms:      make(map[string]int64),
		startTime:         time.Now(),
		topN:              topN,
	}
}

func (a *Aggregator) Record(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	}
	a.byModel[event.Model]++
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % maxLatencySamples
	}
	a.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
	}
	for _, t := range event.UnknownTerms {
		a.unknownTerms[t]++
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.totalSearches - a.cacheHits,
		ZeroResultCount: a.zeroResults,
		ByModel:         make(map[string]int64, len(a.byModel)),
	}
	for m, n := range a.byModel {
		stats.ByModel[m] = n
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, a.topN)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, a.topN)
	stats.UnknownTerms = topN(a.unknownTerms, a.topN)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then key ascending.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
