// Package oneshot implements a channel that delivers a single value from one
// sender to one receiver.
//
// A channel is created by [New], which returns a [Sender] and a [Receiver]
// sharing one state cell. The sender calls [Sender.Send] at most once. The
// receiver collects the value with [Receiver.TryRecv] (which never waits),
// [Receiver.Poll] (which registers a [Waker] to be notified when the value
// arrives), or [Receiver.Recv] (which blocks).
//
// A handle that is no longer needed should be closed. Closing the sender
// without sending disconnects the channel, and a waiting receiver observes
// [ErrDisconnected]. Closing the receiver before a value arrives makes a
// subsequent send fail with a [*SendError] that returns the value.
package oneshot

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/creachadair/mds/value"
	"github.com/creachadair/oneshot/spin"
)

// ErrDisconnected is reported by a receive when no value is pending and none
// will ever arrive: The sender departed without sending, the receiver was
// closed, or the value was already collected.
var ErrDisconnected = errors.New("oneshot disconnected")

// SendError is the error reported by [Sender.Send] when the channel is
// disconnected. It carries the value that could not be delivered.
type SendError[T any] struct {
	Item T // the rejected value
}

func (e *SendError[T]) Error() string { return "oneshot: send on disconnected channel" }

// Unwrap returns [ErrDisconnected].
func (*SendError[T]) Unwrap() error { return ErrDisconnected }

// New constructs a new channel and returns its sender and receiver. The
// channel state is guarded by a [spin.Lock].
func New[T any]() (*Sender[T], *Receiver[T]) { return NewWith[T](nil) }

// NewWith constructs a new channel whose state is guarded by mu, and returns
// its sender and receiver. If mu == nil, a [spin.Lock] is used. The lock is
// held only while the channel state changes, never while a [Waker] runs.
func NewWith[T any](mu sync.Locker) (*Sender[T], *Receiver[T]) {
	if mu == nil {
		mu = new(spin.Lock)
	}
	c := newCell[T](mu)

	s := new(Sender[T])
	s.c.Store(c)
	s.cleanup = runtime.AddCleanup(s, (*cell[T]).release, c)

	r := new(Receiver[T])
	r.c.Store(c)
	r.cleanup = runtime.AddCleanup(r, (*cell[T]).release, c)
	return s, r
}

// A Sender is the sending side of a channel. A Sender can send at most one
// value; after [Sender.Send] or [Sender.Close] it is used up.
//
// A sender that becomes unreachable without sending is eventually closed by
// the garbage collector, but callers should not rely on that: Call Close.
type Sender[T any] struct {
	c       atomic.Pointer[cell[T]] // nil once used
	cleanup runtime.Cleanup
}

// take detaches s from its channel and reports the channel, or nil if s was
// already used.
func (s *Sender[T]) take() *cell[T] {
	c := s.c.Swap(nil)
	if c != nil {
		s.cleanup.Stop()
		runtime.KeepAlive(s) // s must not be collected before Stop returns
	}
	return c
}

// Send delivers v to the receiver and wakes the receiver if it is waiting.
// If the channel is disconnected, Send reports a [*SendError] holding v.
// Send does not block.
//
// Send panics if s was already used by a previous call to Send or Close.
func (s *Sender[T]) Send(v T) error {
	c := s.take()
	if c == nil {
		panic("oneshot: send on a used sender")
	}
	return update(c, func(old state[T]) (state[T], Waker, error) {
		switch old.kind {
		case notYetPolled:
			return state[T]{kind: itemSent, item: v}, nil, nil
		case waiting:
			return state[T]{kind: itemSent, item: v}, old.waker, nil
		case disconnected:
			return old, nil, &SendError[T]{Item: v}
		default:
			// Only a sender can store a value, and a sender sends once.
			panic(fmt.Sprintf("oneshot: send in state %v", old.kind))
		}
	})
}

// Close releases s without sending. If no value was sent, the channel is
// disconnected and a waiting receiver is woken. Close is a no-op if s was
// already used.
func (s *Sender[T]) Close() {
	if c := s.take(); c != nil {
		c.release()
	}
}

// A Receiver is the receiving side of a channel. A Receiver collects at most
// one value; once the value is collected, every later receive reports
// [ErrDisconnected].
//
// The methods of a Receiver are safe to call from multiple goroutines, but
// only the [Waker] from the most recent call to [Receiver.Poll] is kept.
//
// A receiver that becomes unreachable without being closed is eventually
// closed by the garbage collector. Until the collector runs, a send on the
// channel succeeds and the value is discarded with the channel; afterward, a
// send reports a [*SendError]. Callers that need a definite outcome should
// call Close.
type Receiver[T any] struct {
	c       atomic.Pointer[cell[T]] // nil once closed
	cleanup runtime.Cleanup
}

// TryRecv reports the value sent on the channel, if one is pending. If no
// value has been sent yet, TryRecv reports an absent value and a nil error.
// If the channel is disconnected, TryRecv reports [ErrDisconnected]. TryRecv
// does not block.
func (r *Receiver[T]) TryRecv() (value.Maybe[T], error) {
	c := r.c.Load()
	if c == nil {
		return value.Absent[T](), ErrDisconnected
	}
	defer runtime.KeepAlive(r)
	return receive(c, func(old state[T]) state[T] { return old })
}

// Poll is as TryRecv, but if no value has been sent yet, it registers w to be
// woken when the channel is ready, replacing any waker registered by a
// previous call. A replaced waker is never woken.
//
// Poll reports a present value or an error when the receive is complete, and
// an absent value with a nil error when the caller should wait for w.
//
// Poll panics if w == nil.
func (r *Receiver[T]) Poll(w Waker) (value.Maybe[T], error) {
	if w == nil {
		panic("oneshot: poll with nil waker")
	}
	c := r.c.Load()
	if c == nil {
		return value.Absent[T](), ErrDisconnected
	}
	defer runtime.KeepAlive(r)
	return receive(c, func(state[T]) state[T] { return state[T]{kind: waiting, waker: w} })
}

type recvResult[T any] struct {
	v   value.Maybe[T]
	err error
}

// receive collects a pending value from c. If there is no value and c is not
// disconnected, the state is replaced by pending(old).
func receive[T any](c *cell[T], pending func(old state[T]) state[T]) (value.Maybe[T], error) {
	res := update(c, func(old state[T]) (state[T], Waker, recvResult[T]) {
		switch old.kind {
		case itemSent:
			return state[T]{kind: disconnected}, nil, recvResult[T]{v: value.Just(old.item)}
		case disconnected:
			return old, nil, recvResult[T]{v: value.Absent[T](), err: ErrDisconnected}
		default:
			return pending(old), nil, recvResult[T]{v: value.Absent[T]()}
		}
	})
	return res.v, res.err
}

// Recv blocks until a value is sent on the channel or the channel is
// disconnected, and reports the value or [ErrDisconnected].
//
// If ctx ends first, Recv reports a zero value and the error that ended ctx.
// In that case r remains usable, and a later receive may still collect the
// value.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	sig := NewSignal()
	for {
		v, err := r.Poll(sig)
		if err != nil {
			return zero, err
		} else if v.Present() {
			return v.Get(), nil
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-sig.Ready():
			// Woken; poll again to find out why.
		}
	}
}

// Close releases r. If no value was sent, the channel is disconnected and a
// later send fails. Once r is closed, every receive on r reports
// [ErrDisconnected]. Close is a no-op if r was already closed.
func (r *Receiver[T]) Close() {
	c := r.c.Swap(nil)
	if c != nil {
		r.cleanup.Stop()
		runtime.KeepAlive(r)
		c.release()
	}
}
