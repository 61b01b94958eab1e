package engine

import (
	"slices"
	"sync"
)

// keyedLocks serializes operations per logical key (a job id or a worker
// phone). Acquisition always happens in sorted key order, so two operations
// whose key sets overlap cannot deadlock each other.
//
// Mutexes are kept for the lifetime of the process; the table is bounded by
// the number of distinct jobs and workers ever touched.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// acquire locks every key (deduplicated, sorted) and returns the release
// function. Release order is the reverse of acquisition.
func (k *keyedLocks) acquire(keys ...string) func() {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	for _, key := range sorted {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func jobKey(id string) string { return "job:" + id }

func workerKey(phone string) string { return "worker:" + phone }
