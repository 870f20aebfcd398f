package internal

import "sync"

// keyedLocks hands out one RWMutex per repository name. Entries are never
// removed; the set is bounded by the catalog.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.RWMutex)}
}

func (k *keyedLocks) get(name string) *sync.RWMutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		k.locks[name] = l
	}
	return l
}

// lock takes the exclusive lock for name and returns its release
func (k *keyedLocks) lock(name string) func() {
	l := k.get(name)
	l.Lock()
	return l.Unlock
}

// rlock takes the shared lock for name and returns its release
func (k *keyedLocks) rlock(name string) func() {
	l := k.get(name)
	l.RLock()
	return l.RUnlock
}
