// Package spin implements a spin lock for very short critical sections.
package spin

import (
	"runtime"
	"sync/atomic"
)

// busyTries is the number of acquisition attempts Lock makes before it
// begins yielding the processor between attempts.
const busyTries = 16

// A Lock is a mutual exclusion lock that waits by spinning rather than by
// parking the goroutine. It is only suitable for critical sections that do a
// constant amount of work and never block or call user code.
//
// A zero Lock is unlocked and ready for use, but must not be copied after its
// first use.
type Lock struct {
	held atomic.Bool
}

// Lock acquires l, spinning until it is available.
func (l *Lock) Lock() {
	for i := 0; !l.TryLock(); i++ {
		if i >= busyTries {
			runtime.Gosched()
		}
	}
}

// TryLock attempts to acquire l without waiting, and reports whether it
// succeeded.
func (l *Lock) TryLock() bool {
	// Check before the CAS so that waiters spin on a shared read.
	return !l.held.Load() && l.held.CompareAndSwap(false, true)
}

// Unlock releases l. It panics if l is not locked.
func (l *Lock) Unlock() {
	if !l.held.CompareAndSwap(true, false) {
		panic("spin: unlock of unlocked lock")
	}
}
