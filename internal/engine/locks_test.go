package engine

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedLocksAcquireRelease(t *testing.T) {
	kl := newKeyedLocks()

	unlock := kl.acquire(jobKey("a"), workerKey("+911"), workerKey("+912"))
	unlock()

	// Reacquiring the same keys after release must not block.
	done := make(chan struct{})
	go func() {
		unlock := kl.acquire(workerKey("+912"), jobKey("a"))
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reacquire blocked; locks were not released")
	}
}

func TestKeyedLocksDuplicateKeys(t *testing.T) {
	kl := newKeyedLocks()

	// Duplicates are collapsed; acquiring the same key twice in one call
	// must not self-deadlock.
	done := make(chan struct{})
	go func() {
		unlock := kl.acquire(workerKey("+911"), workerKey("+911"))
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("duplicate key acquisition deadlocked")
	}
}

// Two goroutines acquiring overlapping key sets in opposite request order
// must not deadlock, because acquisition is always in sorted order.
func TestKeyedLocksOppositeOrderNoDeadlock(t *testing.T) {
	kl := newKeyedLocks()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := kl.acquire(jobKey("j1"), workerKey("+911"), workerKey("+912"))
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := kl.acquire(workerKey("+912"), workerKey("+911"), jobKey("j1"))
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("opposite-order acquisition deadlocked")
	}
}

func TestKeyedLocksMutualExclusion(t *testing.T) {
	kl := newKeyedLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := kl.acquire(workerKey("+911"))
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("expected 100 increments, got %d", counter)
	}
}
