package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/resilience"
)

var errNotFound = errors.New("not found")

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, errNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func isNotFound(err error) bool { return errors.Is(err, errNotFound) }

func TestBuildKey(t *testing.T) {
	cosine := executor.Options{Model: ranker.ModelCosine, Limit: 20}
	if BuildKey(parser.Parse("graph tree"), cosine) != BuildKey(parser.Parse("Tree GRAPH"), cosine) {
		t.Error("term order and case should not change the key")
	}
	if BuildKey(parser.Parse("graph"), cosine) == BuildKey(parser.Parse("graph graph"), cosine) {
		t.Error("repeated terms must change the key")
	}
	prox := executor.Options{Model: ranker.ModelProximity, Limit: 20, K: 3}
	prox5 := prox
	prox5.K = 5
	if BuildKey(parser.Parse("graph"), prox) == BuildKey(parser.Parse("graph"), prox5) {
		t.Error("width must change the key")
	}
	if BuildKey(parser.Parse("graph"), prox) == BuildKey(parser.Parse("graph"), cosine) {
		t.Error("model must change the key")
	}
	if !strings.HasPrefix(BuildKey(parser.Parse("x"), cosine), keyPrefix) {
		t.Error("missing key prefix")
	}
}

func TestGetOrCompute(t *testing.T) {
	met := metrics.New(prometheus.NewRegistry())
	c := NewWithStore(newMemStore(), isNotFound, time.Minute, met)
	q := parser.Parse("graph")
	opts := executor.Options{Model: ranker.ModelCosine, Limit: 10}
	var calls atomic.Int32
	compute := func(context.Context) (*executor.SearchResult, error) {
		calls.Add(1)
		return &executor.SearchResult{Query: "graph", Model: ranker.ModelCosine, TotalHits: 1,
			Results: []ranker.ScoredDoc{{DocID: 3, Score: 0.5}}}, nil
	}

	res, hit, err := c.GetOrCompute(context.Background(), q, opts, compute)
	if err != nil || hit || res.TotalHits != 1 {
		t.Fatalf("first call: res=%+v hit=%v err=%v", res, hit, err)
	}
	res, hit, err = c.GetOrCompute(context.Background(), q, opts, compute)
	if err != nil || !hit || res.Results[0].DocID != 3 {
		t.Fatalf("second call: res=%+v hit=%v err=%v", res, hit, err)
	}
	if calls.Load() != 1 {
		t.Errorf("compute ran %d times", calls.Load())
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats hits=%d misses=%d", hits, misses)
	}
	if got := testutil.ToFloat64(met.CacheHitsTotal); got != 1 {
		t.Errorf("cache hit counter = %v", got)
	}

	if err := c.Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(context.Background(), q, opts); ok {
		t.Error("entry survived invalidation")
	}
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c := NewWithStore(newMemStore(), isNotFound, time.Minute, nil)
	q := parser.Parse("graph")
	opts := executor.Options{Model: ranker.ModelCosine}
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), q, opts, func(context.Context) (*executor.SearchResult, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get(context.Background(), q, opts); ok {
		t.Error("failed computation was cached")
	}
}

func TestGetOrComputeOutlivesFirstCaller(t *testing.T) {
	c := NewWithStore(newMemStore(), isNotFound, time.Minute, nil)
	q := parser.Parse("graph")
	opts := executor.Options{Model: ranker.ModelCosine, Limit: 10}

	started := make(chan struct{})
	release := make(chan struct{})
	var computeErr error
	compute := func(ctx context.Context) (*executor.SearchResult, error) {
		close(started)
		<-release
		computeErr = ctx.Err()
		if computeErr != nil {
			return nil, computeErr
		}
		return &executor.SearchResult{Query: "graph", TotalHits: 2}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCompute(ctx, q, opts, compute)
		first <- err
	}()
	<-started
	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("first caller err = %v, want context.Canceled", err)
	}

	second := make(chan *executor.SearchResult, 1)
	go func() {
		res, _, err := c.GetOrCompute(context.Background(), q, opts, func(context.Context) (*executor.SearchResult, error) {
			t.Error("second caller started its own computation")
			return nil, nil
		})
		if err != nil {
			t.Errorf("second caller err = %v", err)
		}
		second <- res
	}()
	// Let the second caller join the in-flight computation before it finishes.
	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-second
	if computeErr != nil {
		t.Fatalf("shared computation saw %v after the first caller left", computeErr)
	}
	if res == nil || res.TotalHits != 2 {
		t.Fatalf("second caller result = %+v", res)
	}
	if _, ok := c.Get(context.Background(), q, opts); !ok {
		t.Error("result of the shared computation was not cached")
	}
}

type downStore struct{ calls atomic.Int32 }

var errDown = errors.New("connection refused")

func (s *downStore) Get(context.Context, string) ([]byte, error) {
	s.calls.Add(1)
	return nil, errDown
}

func (s *downStore) Set(context.Context, string, []byte, time.Duration) error {
	s.calls.Add(1)
	return errDown
}

func (s *downStore) DeleteByPattern(context.Context, string) (int64, error) {
	s.calls.Add(1)
	return 0, errDown
}

func TestGuardStopsCallingFailingStore(t *testing.T) {
	down := &downStore{}
	breaker := resilience.NewBreaker("test", resilience.BreakerConfig{Threshold: 2, Cooldown: time.Hour})
	c := NewWithStore(Guard(down, isNotFound, breaker), isNotFound, time.Minute, nil)
	q := parser.Parse("graph")
	opts := executor.Options{Model: ranker.ModelCosine}

	for range 5 {
		res, hit, err := c.GetOrCompute(context.Background(), q, opts, func(context.Context) (*executor.SearchResult, error) {
			return &executor.SearchResult{Query: "graph"}, nil
		})
		if err != nil || hit || res == nil {
			t.Fatalf("search must proceed without the cache: res=%v hit=%v err=%v", res, hit, err)
		}
	}
	if got := down.calls.Load(); got != 2 {
		t.Errorf("store called %d times, want 2 before the circuit opened", got)
	}
	if breaker.State() != resilience.StateOpen {
		t.Errorf("state = %v", breaker.State())
	}
}

func TestGuardDoesNotCountMisses(t *testing.T) {
	breaker := resilience.NewBreaker("test", resilience.BreakerConfig{Threshold: 1, Cooldown: time.Hour})
	store := Guard(newMemStore(), isNotFound, breaker)
	for range 3 {
		if _, err := store.Get(context.Background(), "absent"); !errors.Is(err, errNotFound) {
			t.Fatalf("err = %v, want not found", err)
		}
	}
	if breaker.State() != resilience.StateClosed {
		t.Errorf("misses opened the circuit")
	}
}
