package service

import "sync"

// recordLocks serializes blob mutations per record id. Entries are kept for
// the process lifetime; the set of concurrently mutated records is small.
type recordLocks struct {
	m sync.Map // id -> *sync.Mutex
}

func (l *recordLocks) lock(id string) (unlock func()) {
	v, _ := l.m.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
