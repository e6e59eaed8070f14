package spin_test

import (
	"sync"
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/creachadair/oneshot/spin"
	"github.com/fortytw2/leaktest"
)

var _ sync.Locker = (*spin.Lock)(nil)

func TestTryLock(t *testing.T) {
	var l spin.Lock

	if !l.TryLock() {
		t.Fatal("TryLock on a zero lock: got false, want true")
	}
	if l.TryLock() {
		t.Error("TryLock on a held lock: got true, want false")
	}
	l.Unlock()
	if !l.TryLock() {
		t.Error("TryLock after Unlock: got false, want true")
	}
	l.Unlock()
}

func TestUnlockUnlocked(t *testing.T) {
	var l spin.Lock
	mtest.MustPanicf(t, l.Unlock, "Unlock of an unlocked lock did not panic")
}

func TestExclusion(t *testing.T) {
	defer leaktest.Check(t)()

	const numTasks = 16
	const numOps = 2000

	var l spin.Lock
	var count, inside int

	var wg sync.WaitGroup
	for range numTasks {
		wg.Go(func() {
			for range numOps {
				l.Lock()
				inside++
				if inside != 1 {
					t.Errorf("Have %d holders inside the lock", inside)
				}
				count++
				inside--
				l.Unlock()
			}
		})
	}
	wg.Wait()

	if want := numTasks * numOps; count != want {
		t.Errorf("Count: got %d, want %d", count, want)
	}
}
