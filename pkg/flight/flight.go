// Package flight coalesces concurrent work for the same key and keeps
// successful results for a while.
package flight

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Cache[K comparable, V any] struct {
	finished map[K]*entry[V]
	pending  map[K]*job[V]
	mu       sync.Mutex

	work func(context.Context, K) (V, error)

	// ttl stores the hold duration in nanoseconds. <= 0 means forever.
	ttl atomic.Int64
	now func() time.Time
}

type entry[V any] struct {
	val      V
	deadline time.Time // zero => infinite
}

type job[V any] struct {
	val  V
	err  error
	done chan struct{}
}

func NewCache[K comparable, V any](work func(context.Context, K) (V, error)) *Cache[K, V] {
	c := &Cache[K, V]{
		finished: make(map[K]*entry[V]),
		pending:  make(map[K]*job[V]),
		work:     work,
		now:      time.Now,
	}
	c.ttl.Store(int64(time.Hour))
	return c
}

// Expiry sets how long future results are kept. d <= 0 keeps them forever.
func (c *Cache[K, V]) Expiry(d time.Duration) {
	c.ttl.Store(int64(max(d, 0)))
}

// Get returns the cached value for k, joining an in-flight computation or
// starting one. Failed results are not cached. The computation outlives a
// canceled caller so that joined callers still get its result.
func (c *Cache[K, V]) Get(ctx context.Context, k K) (V, error) {
	c.mu.Lock()
	if e, ok := c.finished[k]; ok {
		if e.deadline.IsZero() || c.now().Before(e.deadline) {
			c.mu.Unlock()
			return e.val, nil
		}
		delete(c.finished, k)
	}
	if j, ok := c.pending[k]; ok {
		c.mu.Unlock()
		return c.wait(ctx, j)
	}
	j := c.start(k)
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), k, j)
	return c.wait(ctx, j)
}

// Force recomputes k even if a result is cached. Concurrent callers of Get
// join the forced computation.
func (c *Cache[K, V]) Force(ctx context.Context, k K) (V, error) {
	for {
		c.mu.Lock()
		existing, ok := c.pending[k]
		if !ok {
			break
		}
		c.mu.Unlock()
		if _, err := c.wait(ctx, existing); ctx.Err() != nil {
			var zero V
			return zero, err
		}
	}
	j := c.start(k)
	c.mu.Unlock()

	go c.run(context.WithoutCancel(ctx), k, j)
	return c.wait(ctx, j)
}

// Peek returns a cached, unexpired value without computing one.
func (c *Cache[K, V]) Peek(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.finished[k]; ok && (e.deadline.IsZero() || c.now().Before(e.deadline)) {
		return e.val, true
	}
	var zero V
	return zero, false
}

func (c *Cache[K, V]) Invalidate(k K) {
	c.mu.Lock()
	delete(c.finished, k)
	c.mu.Unlock()
}

// start registers a job for k. c.mu must be held.
func (c *Cache[K, V]) start(k K) *job[V] {
	j := &job[V]{done: make(chan struct{})}
	c.pending[k] = j
	return j
}

func (c *Cache[K, V]) run(ctx context.Context, k K, j *job[V]) {
	j.val, j.err = c.work(ctx, k)

	c.mu.Lock()
	if j.err == nil {
		e := &entry[V]{val: j.val}
		if d := time.Duration(c.ttl.Load()); d > 0 {
			e.deadline = c.now().Add(d)
		}
		c.finished[k] = e
	}
	delete(c.pending, k)
	close(j.done)
	c.mu.Unlock()
}

func (c *Cache[K, V]) wait(ctx context.Context, j *job[V]) (V, error) {
	select {
	case <-j.done:
		return j.val, j.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
