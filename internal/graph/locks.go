package graph

import "sync"

// threadLocks serializes turns per thread. A conversation is strictly
// sequential; concurrent requests for different threads do not contend.
type threadLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newThreadLocks() *threadLocks {
	return &threadLocks{locks: make(map[string]*sync.Mutex)}
}

func (t *threadLocks) lock(threadID string) func() {
	t.mu.Lock()
	l, ok := t.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[threadID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
