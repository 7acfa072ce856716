package keylock

import (
	"sort"
	"sync"
)

// KeyLock provides one mutex per key. Locks are created lazily and never
// discarded; the key space here (products, orders of a single store) is small
// enough that this does not matter.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the mutex for a single key and returns its unlock function.
func (k *KeyLock) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the mutexes for every distinct key in ascending key order,
// so that two callers locking overlapping key sets can never deadlock. The
// returned function releases them in reverse order.
func (k *KeyLock) LockAll(keys []string) func() {
	distinct := dedupSorted(keys)
	held := make([]*sync.Mutex, 0, len(distinct))
	for _, key := range distinct {
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

func dedupSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
