package oneshot

// A Waker is notified when a pending receive may be able to make progress.
//
// Wake must not block, and must be safe to call more than once; it only
// schedules the receiver to poll again. A receiver that is woken re-polls the
// channel to find out what happened.
type Waker interface {
	Wake()
}

// A Signal is a level-triggered wakeup shared by a channel and the goroutine
// that polls it. The channel calls Wake to record a wakeup, and the poller
// calls Ready to obtain a channel that delivers it.
//
// Waking a signal does not block: Once a wakeup is pending, additional wakes
// are discarded until the pending wakeup is consumed.
type Signal struct {
	ch chan struct{}
}

// NewSignal constructs a new signal with no pending wakeup.
func NewSignal() *Signal { return &Signal{ch: make(chan struct{}, 1)} }

// Wake records a wakeup on s, if one is not already pending. Wake does not
// block. Waking a nil *Signal has no effect.
func (s *Signal) Wake() {
	if s == nil {
		return
	}
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Ready returns a channel that delivers a value when a wakeup is pending.
// Once the wakeup is received, further reads on the channel block until s is
// woken again. A nil *Signal is never ready.
func (s *Signal) Ready() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ch
}
