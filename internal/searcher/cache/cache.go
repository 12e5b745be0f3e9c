// Package cache stores search results in Redis. Concurrent misses for the same
// key are collapsed into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/resilience"
)

const (
	keyPrefix = "search:"
	// computeTimeout bounds a shared computation once it no longer follows
	// the context of the caller that started it.
	computeTimeout = 30 * time.Second
)

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
}

// NotFoundFunc reports whether a Store error means a missing key.
type NotFoundFunc func(error) bool

type QueryCache struct {
	store    Store
	notFound NotFoundFunc
	ttl      time.Duration
	group    singleflight.Group
	metrics  *metrics.Metrics
	logger   *slog.Logger
	hits     atomic.Int64
	misses   atomic.Int64
}

// New creates a cache over a Redis client guarded by a circuit breaker. met
// may be nil.
func New(client *pkgredis.Client, ttl time.Duration, met *metrics.Metrics) *QueryCache {
	breaker := resilience.NewBreaker("redis", resilience.BreakerConfig{Threshold: 5, Cooldown: 10 * time.Second})
	return NewWithStore(Guard(client, pkgredis.IsNotFound, breaker), pkgredis.IsNotFound, ttl, met)
}

// NewWithStore creates a cache over any Store.
func NewWithStore(store Store, notFound NotFoundFunc, ttl time.Duration, met *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:    store,
		notFound: notFound,
		ttl:      ttl,
		metrics:  met,
		logger:   slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, q *parser.Query, opts executor.Options) (*executor.SearchResult, bool) {
	key := BuildKey(q, opts)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		switch {
		case c.notFound(err):
		case errors.Is(err, resilience.ErrOpen):
			c.logger.Debug("cache bypassed", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", q.RawQuery, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, q *parser.Query, opts executor.Options, result *executor.SearchResult) {
	key := BuildKey(q, opts)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns a cached result or runs computeFn once per key across
// concurrent callers. opts must already be resolved so that equivalent
// requests share a key. The shared computation runs detached from any one
// caller's cancellation, bounded by computeTimeout; a caller whose ctx ends
// first returns ctx.Err() while the others still receive the result.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	q *parser.Query,
	opts executor.Options,
	computeFn func(ctx context.Context) (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, q, opts); ok {
		return result, true, nil
	}
	key := BuildKey(q, opts)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()
		result, err := computeFn(cctx)
		if err != nil {
			return nil, err
		}
		c.Set(cctx, q, opts, result)
		return result, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*executor.SearchResult), false, nil
	}
}

// Invalidate drops every cached search result, e.g. after a rebuild.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.DeleteByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the cache key from everything that affects a ranking:
// the model, its width, the limit and the query terms. Term order does not
// matter but repetitions do, since cosine weights query-local counts.
func BuildKey(q *parser.Query, opts executor.Options) string {
	terms := append([]string(nil), q.Terms...)
	sort.Strings(terms)
	raw := fmt.Sprintf("%s|k=%d|limit=%d|%s", opts.Model, opts.K, opts.Limit, strings.Join(terms, ","))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
