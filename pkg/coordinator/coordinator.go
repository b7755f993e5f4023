package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/metrics"
)

// DefaultInterval is how often the cloud API is polled.
const DefaultInterval = 60 * time.Second

// FetchFunc fetches one snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Coordinator polls a fetch function and hands every successful result to
// its listeners.
type Coordinator[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	metrics  *metrics.Metrics

	// refreshMu serializes fetches so listeners see results in order.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	data        T
	hasData     bool
	lastErr     error
	lastSuccess time.Time
	listeners   []func(T)
}

// New creates a coordinator. A non-positive interval means DefaultInterval.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T]) *Coordinator[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Coordinator[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
	}
}

// UseMetrics records polls on m.
func (c *Coordinator[T]) UseMetrics(m *metrics.Metrics) *Coordinator[T] {
	c.metrics = m
	return c
}

// Name returns the coordinator name.
func (c *Coordinator[T]) Name() string {
	return c.name
}

// Listen registers fn to receive every successful result.
func (c *Coordinator[T]) Listen(fn func(T)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Run fetches immediately and then on every tick until ctx is done.
func (c *Coordinator[T]) Run(ctx context.Context) {
	log.Info().Str("coordinator", c.name).Dur("interval", c.interval).Msg("Starting poller")
	_ = c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("coordinator", c.name).Msg("Poller stopped")
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Refresh fetches once. On failure the previous data is kept and listeners
// are not called.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	start := time.Now()
	data, err := c.fetch(ctx)
	c.metrics.Poll(c.name, start, err)
	if err != nil {
		log.Warn().Err(err).Str("coordinator", c.name).Msg("Poll failed")
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.data = data
	c.hasData = true
	c.lastErr = nil
	c.lastSuccess = time.Now()
	listeners := make([]func(T), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	log.Debug().Str("coordinator", c.name).Dur("took", time.Since(start)).Msg("Poll succeeded")
	for _, fn := range listeners {
		fn(data)
	}
	return nil
}

// Data returns the last successful result and whether there was one.
func (c *Coordinator[T]) Data() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.hasData
}

// LastError returns the error of the last poll, nil if it succeeded.
func (c *Coordinator[T]) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LastSuccess returns when the last successful poll finished.
func (c *Coordinator[T]) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}
