package oneshot

import "sync"

type stateKind byte

const (
	notYetPolled stateKind = iota // no value, no waiter
	waiting                       // the receiver polled and left a waker
	itemSent                      // a value is stored for the receiver
	disconnected                  // no value is pending, and none will arrive
)

var kindName = [...]string{
	notYetPolled: "not yet polled",
	waiting:      "waiting",
	itemSent:     "item sent",
	disconnected: "disconnected",
}

func (k stateKind) String() string { return kindName[k] }

// A state is one variant of the channel state. The waker field is set only
// when kind == waiting, and item only when kind == itemSent.
type state[T any] struct {
	kind  stateKind
	waker Waker
	item  T
}

// A cell is the channel state shared by one sender and one receiver.
type cell[T any] struct {
	μ  sync.Locker // protects st
	st state[T]
}

func newCell[T any](mu sync.Locker) *cell[T] {
	return &cell[T]{μ: mu, st: state[T]{kind: notYetPolled}}
}

// update replaces the state of c with the state computed by f from the old
// state, and returns the result reported by f. The transition is performed
// with the lock held. If f reports a non-nil waker, it is woken after the
// lock is released, since a waker may re-poll the channel immediately.
func update[T, R any](c *cell[T], f func(old state[T]) (next state[T], wake Waker, r R)) R {
	var wake Waker
	var r R
	func() {
		c.μ.Lock()
		defer c.μ.Unlock()
		c.st, wake, r = f(c.st)
	}()

	if wake != nil {
		wake.Wake()
	}
	return r
}

// release performs the transition for a handle that departs without
// completing its side of the exchange. A waiting receiver is woken to observe
// the disconnection. A value already sent remains available for collection.
func (c *cell[T]) release() {
	update(c, func(old state[T]) (state[T], Waker, struct{}) {
		switch old.kind {
		case waiting:
			return state[T]{kind: disconnected}, old.waker, struct{}{}
		case itemSent:
			return old, nil, struct{}{}
		default:
			return state[T]{kind: disconnected}, nil, struct{}{}
		}
	})
}

// kind reports the current state kind of c.
func (c *cell[T]) kind() stateKind {
	c.μ.Lock()
	defer c.μ.Unlock()
	return c.st.kind
}
