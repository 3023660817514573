// Package stream implements the reducer's output side: a generic,
// thread-safe, pull-based sink that a producer appends to without ever
// blocking, and a consumer drains at its own pace. It has no
// io.Reader/Writer surface (the reducer never needs byte-oriented
// framing) and offers a context-aware blocking Next, since the reducer's
// flush loop runs under a context that can be canceled mid-wait.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Append after the batch has been closed.
var ErrClosed = errors.New("stream: batch closed")

// Batch is an unbounded, thread-safe queue of emitted events. Append
// never blocks and never fails while the batch is open — the reducer has
// no backpressure at this boundary; if a consumer falls behind, items
// simply accumulate. Next blocks until an item is available, the context
// is canceled, or the batch is closed and drained.
type Batch[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
	closed bool
}

// NewBatch returns an empty, open Batch.
func NewBatch[T any]() *Batch[T] {
	return &Batch[T]{notify: make(chan struct{}, 1)}
}

// Append adds v to the batch. It is safe to call from the reducer's
// single driving goroutine or, if a caller chooses to parallelize
// producers, from multiple goroutines.
func (b *Batch[T]) Append(v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items = append(b.items, v)
	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// AppendAll appends every item in vs, in order.
func (b *Batch[T]) AppendAll(vs []T) error {
	for _, v := range vs {
		if err := b.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// Drain removes and returns every item currently buffered, without
// blocking. It returns an empty (nil) slice if the batch is empty.
func (b *Batch[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil
	}
	out := b.items
	b.items = nil
	return out
}

// Len reports the number of items currently buffered.
func (b *Batch[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Next blocks until at least one item is available, returning the first
// one (FIFO), or returns false if ctx is canceled or the batch is closed
// and empty.
func (b *Batch[T]) Next(ctx context.Context) (T, bool) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			v := b.items[0]
			b.items = b.items[1:]
			b.mu.Unlock()
			return v, true
		}
		if b.closed {
			b.mu.Unlock()
			var zero T
			return zero, false
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// Close marks the batch closed: further Append calls fail, and Next
// returns false once the remaining items have been drained.
func (b *Batch[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}
