// Package channel provides the bounded, single-producer/single-consumer
// conduit the engine uses for its input queue, its shared output queue, and
// every per-service queue. It wraps a raw Go channel for two reasons: the
// closed-channel failure is a single named error kind every component
// propagates uniformly, and both a blocking and a non-blocking send must
// coexist so a synchronous transport worker running on a dedicated OS
// thread can hand messages to the engine without re-entering a cooperative
// scheduler.
package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Send/BlockingSend once every sender handle has
// been closed, and by Recv when all senders have been closed and the buffer
// is empty. There is no receiver-side close: a receiver that stops reading
// is not observed by senders, whose sends block once the buffer is full.
// Apart from ctx errors from Send and Recv, it is the only error kind
// Sender and Receiver return.
var ErrClosed = errors.New("channel: closed")

// New creates a bounded channel pair with the given capacity and returns
// the sender and receiver endpoints. The receiver is uniquely owned by its
// consumer; the sender may be cloned freely with Sender.Clone.
func New[T any](capacity int) (*Sender[T], *Receiver[T]) {
	s := &shared[T]{
		ch:     make(chan T, capacity),
		closed: make(chan struct{}),
	}
	s.senders.Store(1)

	return &Sender[T]{shared: s}, &Receiver[T]{shared: s}
}

// shared is the state backing one Sender/Receiver pair. The data channel is
// never closed directly: with multiple cloned senders, closing it from one
// clone would panic the others. Instead `closed` is closed exactly once,
// when the last sender handle drops, and Recv drains any buffered values
// before reporting ErrClosed.
type shared[T any] struct {
	ch      chan T
	closed  chan struct{}
	once    sync.Once
	senders atomic.Int64
}

func (s *shared[T]) markClosed() {
	s.once.Do(func() { close(s.closed) })
}

// Sender is the producer end of a channel. The zero value is not usable;
// obtain one from New or Sender.Clone.
type Sender[T any] struct {
	shared *shared[T]
	done   bool
}

// Clone returns an independent handle to the same underlying channel. The
// receiver observes ErrClosed only once every handle obtained from New and
// Clone has been Close'd.
func (s *Sender[T]) Clone() *Sender[T] {
	s.shared.senders.Add(1)

	return &Sender[T]{shared: s.shared}
}

// Close releases this sender handle. It is idempotent.
func (s *Sender[T]) Close() {
	if s.done {
		return
	}
	s.done = true

	if s.shared.senders.Add(-1) <= 0 {
		s.shared.markClosed()
	}
}

// Send enqueues v, suspending the caller while the channel is at capacity,
// and returns ErrClosed once every sender handle has been closed. ctx
// cancellation also unblocks the caller, returning ctx.Err().
func (s *Sender[T]) Send(ctx context.Context, v T) error {
	select {
	case <-s.shared.closed:
		return ErrClosed
	default:
	}

	select {
	case s.shared.ch <- v:
		return nil
	case <-s.shared.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BlockingSend enqueues v with no cancellation path, for transports that do
// their own synchronous I/O on a dedicated OS thread (e.g. a blocking
// mail-server library) and must hand messages to the engine without
// depending on a runtime scheduler slot being free.
func (s *Sender[T]) BlockingSend(v T) error {
	select {
	case <-s.shared.closed:
		return ErrClosed
	default:
	}

	select {
	case s.shared.ch <- v:
		return nil
	case <-s.shared.closed:
		return ErrClosed
	}
}

// Receiver is the consumer end of a channel. Exactly one goroutine should
// call Recv at a time.
type Receiver[T any] struct {
	shared *shared[T]
}

// Recv returns the next value in FIFO order, or ErrClosed once all senders
// have been dropped and the buffer is empty.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	select {
	case v := <-r.shared.ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
	}

	select {
	case v := <-r.shared.ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-r.shared.closed:
		select {
		case v := <-r.shared.ch:
			return v, nil
		default:
			return zero, ErrClosed
		}
	}
}

// Chan exposes the underlying receive channel for use in a select
// statement alongside other cases — the engine's dispatch loop races the
// input queue against the output supervisor's completion this way. It
// yields only successfully sent values; pair it with Closed to detect
// closure in the same select without blocking in Recv.
func (r *Receiver[T]) Chan() <-chan T {
	return r.shared.ch
}

// Closed returns a channel that is closed once every sender has dropped
// its handle. It fires independently of whether the buffer is empty, so a
// select combining Chan and Closed must keep draining Chan (non-blocking)
// after Closed fires to observe every buffered message before treating the
// channel as exhausted.
func (r *Receiver[T]) Closed() <-chan struct{} {
	return r.shared.closed
}
