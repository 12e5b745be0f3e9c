package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventBuild      EventType = "index_build"
)

type SearchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Model        string    `json:"model"`
	K            int       `json:"k,omitempty"`
	Terms        []string  `json:"terms"`
	UnknownTerms []string  `json:"unknown_terms,omitempty"`
	TotalHits    int       `json:"total_hits"`
	Returned     int       `json:"returned"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id,omitempty"`
}

// BuildEvent summarizes one index build.
type BuildEvent struct {
	Type       EventType `json:"type"`
	Documents  int       `json:"documents"`
	Skipped    []string  `json:"skipped"`
	Terms      int       `json:"terms"`
	Postings   int       `json:"postings"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSearchEvent picks the event type from the hit count.
func NewSearchEvent(query, model string, k int, terms, unknown []string, hits, returned int, latency time.Duration, cacheHit bool, requestID string) SearchEvent {
	t := EventSearch
	if hits == 0 {
		t = EventZeroResult
	}
	return SearchEvent{
		Type:         t,
		Query:        query,
		Model:        model,
		K:            k,
		Terms:        terms,
		UnknownTerms: unknown,
		TotalHits:    hits,
		Returned:     returned,
		LatencyMs:    latency.Milliseconds(),
		CacheHit:     cacheHit,
		Timestamp:    time.Now().UTC(),
		RequestID:    requestID,
	}
}
