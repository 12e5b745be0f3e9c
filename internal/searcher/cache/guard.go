package cache

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/resilience"
)

// guardedStore routes every call through a circuit breaker so an unreachable
// Redis costs one fast error per request instead of a dial timeout. Misses do
// not count as failures.
type guardedStore struct {
	store    Store
	notFound NotFoundFunc
	breaker  *resilience.Breaker
}

// Guard wraps store with breaker.
func Guard(store Store, notFound NotFoundFunc, breaker *resilience.Breaker) Store {
	return &guardedStore{store: store, notFound: notFound, breaker: breaker}
}

func (g *guardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		data   []byte
		getErr error
	)
	err := g.breaker.Do(func() error {
		data, getErr = g.store.Get(ctx, key)
		if getErr != nil && g.notFound(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return data, getErr
}

func (g *guardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

func (g *guardedStore) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var n int64
	err := g.breaker.Do(func() error {
		var err error
		n, err = g.store.DeleteByPattern(ctx, pattern)
		return err
	})
	return n, err
}
