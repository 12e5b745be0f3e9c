package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer/frequency"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/model"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/vocabulary"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/middleware"
)

func newHandler(t *testing.T, collector *analytics.Collector) *Handler {
	t.Helper()
	docs := [][]string{{"algorithm", "system"}, {"computer"}, {"computer", "algorithm", "algorithm"}}
	vocab := vocabulary.Build(docs)
	tfs := make([]vector.Vector, len(docs))
	df := map[string]int{"algorithm": 2, "computer": 2, "system": 1}
	for i, d := range docs {
		tfs[i] = frequency.Count(d, vocab)
	}
	m := model.Build([]string{"A", "B", "C"}, vocab, frequency.NewTable(df), tfs, docs)
	exec := executor.New(m, executor.Config{Partitions: 2, DefaultLimit: 20, DefaultK: 5}, nil)
	return New(exec, nil, collector, 2)
}

func get(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, executor.SearchResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	middleware.RequestID(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var res executor.SearchResult
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec, res
}

func TestSearchCosine(t *testing.T) {
	h := newHandler(t, nil)
	rec, res := get(t, h.Search, "/api/v1/search?q=system")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if res.Model != ranker.ModelCosine || len(res.Results) != 1 || res.Results[0].DocID != 1 || res.Results[0].Name != "A" {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchProximityWithLimitCap(t *testing.T) {
	h := newHandler(t, nil)
	rec, res := get(t, h.Search, "/api/v1/search?q=algorithm+computer&model=proximity&k=2&limit=50")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if res.K != 2 || res.TotalHits != 3 || len(res.Results) != 2 {
		t.Errorf("k=%d hits=%d returned=%d", res.K, res.TotalHits, len(res.Results))
	}
	if res.Results[0].DocID != 3 {
		t.Errorf("best doc = %d, want 3", res.Results[0].DocID)
	}
}

func TestSearchBlankQueryIsEmpty(t *testing.T) {
	h := newHandler(t, nil)
	rec, res := get(t, h.Search, "/api/v1/search?q=")
	if rec.Code != http.StatusOK || len(res.Results) != 0 {
		t.Errorf("status = %d results = %v", rec.Code, res.Results)
	}
}

func TestSearchBadRequests(t *testing.T) {
	h := newHandler(t, nil)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=a&model=bm25",
		"/api/v1/search?q=a&model=proximity&k=0",
		"/api/v1/search?q=a&limit=-1",
		"/api/v1/search?q=a&limit=ten",
	} {
		rec, _ := get(t, h.Search, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestSearchTracksAnalytics(t *testing.T) {
	agg := analytics.NewAggregator(5)
	collector := analytics.NewCollector(nil, agg, analytics.CollectorConfig{FlushInterval: time.Hour})
	collector.Start(context.Background())
	defer collector.Close()

	h := newHandler(t, collector)
	get(t, h.Search, "/api/v1/search?q=computer")
	get(t, h.Search, "/api/v1/search?q=nothing")
	stats := agg.Stats()
	if stats.TotalSearches != 2 || stats.ZeroResultCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	h := newHandler(t, nil)
	rec := httptest.NewRecorder()
	h.CacheStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("stats status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.CacheInvalidate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("invalidate status = %d", rec.Code)
	}
}
