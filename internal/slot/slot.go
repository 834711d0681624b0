// internal/slot/slot.go
package slot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Put and Take once the slot is closed.
var ErrClosed = errors.New("slot: closed")

// Slot is a single-slot, latest-wins buffer.
// Put never blocks: a pending value is overwritten and counted as a drop.
// Multiple producers are allowed; consumers see at most one pending value.
type Slot[T any] struct {
	mu     sync.Mutex
	ch     chan T
	closed chan struct{}
	once   sync.Once
	drops  atomic.Uint64
}

// New returns an empty, open slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{
		ch:     make(chan T, 1),
		closed: make(chan struct{}),
	}
}

// Put stores v, replacing any unconsumed value.
// replaced reports whether a pending value was discarded.
func (s *Slot[T]) Put(v T) (replaced bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return false, ErrClosed
	default:
	}

	select {
	case <-s.ch:
		replaced = true
		s.drops.Add(1)
	default:
	}

	// Cannot block: capacity 1, drained above under mu.
	s.ch <- v
	return replaced, nil
}

// TryTake returns the pending value without blocking.
func (s *Slot[T]) TryTake() (T, bool) {
	select {
	case v := <-s.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Take blocks until a value is pending, the slot closes, or ctx ends.
func (s *Slot[T]) Take(ctx context.Context) (T, error) {
	var zero T
	select {
	case v := <-s.ch:
		return v, nil
	case <-s.closed:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Ready exposes the receive side for select loops.
func (s *Slot[T]) Ready() <-chan T { return s.ch }

// Done is closed once Close has been called.
func (s *Slot[T]) Done() <-chan struct{} { return s.closed }

// Close marks the slot closed. Idempotent.
// A pending value stays readable through TryTake.
func (s *Slot[T]) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		close(s.closed)
		s.mu.Unlock()
	})
}

// Drops is the lifetime number of overwritten values.
func (s *Slot[T]) Drops() uint64 { return s.drops.Load() }
