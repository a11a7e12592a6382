package server

import "sync"

// locks hands out one mutex per session id so structural edits on the same
// session never interleave. Entries live until the session is deleted.
type locks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newLocks() *locks {
	return &locks{m: make(map[string]*sync.Mutex)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *locks) lock(id string) func() {
	l.mu.Lock()
	m, ok := l.m[id]
	if !ok {
		m = &sync.Mutex{}
		l.m[id] = m
	}
	l.mu.Unlock()

	m.Lock()

	return m.Unlock
}

func (l *locks) forget(id string) {
	l.mu.Lock()
	delete(l.m, id)
	l.mu.Unlock()
}
