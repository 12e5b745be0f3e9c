// Package analytics tracks search and build events. Events are buffered and
// published to Kafka in batches; search events are also folded into
// in-process statistics.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/resilience"
)

// Publisher delivers a batch of events. *kafka.Producer implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Recorder consumes search events locally.
type Recorder interface {
	Record(SearchEvent)
}

type Collector struct {
	publisher     Publisher
	recorder      Recorder
	eventCh       chan kafka.Event
	batchSize     int
	flushInterval time.Duration
	retry         resilience.Backoff
	logger        *slog.Logger
	done          chan struct{}

	mu      sync.RWMutex
	started bool
	closed  bool
}

// CollectorConfig sizes the event buffer and the publish batches.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// NewCollector creates a collector. publisher and recorder may each be nil.
func NewCollector(publisher Publisher, recorder Recorder, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		recorder:      recorder,
		eventCh:       make(chan kafka.Event, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		retry:         resilience.Backoff{Attempts: 3, Initial: 200 * time.Millisecond, Jitter: 0.1},
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It flushes when a batch fills up, on every
// tick, and once more when the channel is closed or ctx is cancelled.
// Calls after the first, or after Close, do nothing.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		batch := make([]kafka.Event, 0, c.batchSize)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					c.flush(context.Background(), batch)
					return
				}
				batch = append(batch, event)
				if len(batch) >= c.batchSize {
					c.flush(ctx, batch)
					batch = make([]kafka.Event, 0, c.batchSize)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					c.flush(ctx, batch)
					batch = make([]kafka.Event, 0, c.batchSize)
				}
			case <-ctx.Done():
				batch = c.drain(batch)
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx, batch)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"publishing", c.publisher != nil,
	)
}

// TrackSearch records the event locally and queues it for publishing. It
// never blocks; events are dropped when the buffer is full.
func (c *Collector) TrackSearch(event SearchEvent) {
	if c.recorder != nil {
		c.recorder.Record(event)
	}
	c.enqueue(kafka.Event{Key: event.Query, Value: event})
}

// TrackBuild queues a build summary for publishing.
func (c *Collector) TrackBuild(event BuildEvent) {
	c.enqueue(kafka.Event{Key: string(EventBuild), Value: event})
}

// Close stops accepting events and waits for the final flush. Events tracked
// after Close are dropped, as are queued events of a collector that was
// never started.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}

func (c *Collector) enqueue(e kafka.Event) {
	if c.publisher == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

func (c *Collector) drain(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, event)
		default:
			return batch
		}
	}
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 || c.publisher == nil {
		return
	}
	err := c.retry.Retry(ctx, "publish analytics batch", nil, func(ctx context.Context) error {
		return c.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		return
	}
	c.logger.Debug("analytics batch published", "events", len(batch))
}
