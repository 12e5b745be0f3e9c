// Package resilience guards calls to optional network dependencies (the Redis
// result cache, the Kafka analytics topic) so their failures stay off the
// search path: a circuit breaker stops calling a dependency that keeps
// failing, and Backoff retries transient errors.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by Breaker.Do while calls are being rejected.
var ErrOpen = errors.New("circuit open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig controls when a Breaker trips and how it recovers. Zero
// fields take defaults.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Cooldown is how long the circuit stays open before a trial call is allowed.
	Cooldown time.Duration
	// HalfOpenCalls is the number of concurrent calls allowed while half-open.
	HalfOpenCalls int
}

// Breaker is safe for concurrent use.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.HalfOpenCalls <= 0 {
		cfg.HalfOpenCalls = 1
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "breaker", "dependency", name),
	}
}

// Do calls fn unless the circuit is open. Any error fn returns counts as a
// failure, so callers map expected outcomes such as a cache miss to nil.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.settle(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%s: %w (retry in %v)", b.name, ErrOpen, wait.Round(time.Millisecond))
		}
		b.state = StateHalfOpen
		b.inFlight = 0
		b.logger.Info("circuit half-open, probing")
		fallthrough
	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenCalls {
			return fmt.Errorf("%s: %w (trial call in flight)", b.name, ErrOpen)
		}
		b.inFlight++
	}
	return nil
}

func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}
	if err == nil {
		if b.state == StateHalfOpen {
			b.logger.Info("circuit closed")
		}
		b.state = StateClosed
		b.failures = 0
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.Threshold {
		if b.state != StateOpen {
			b.logger.Warn("circuit opened", "consecutive_failures", b.failures, "error", err)
		}
		b.state = StateOpen
		b.openedAt = b.now()
	}
}
