package subscription

import "sync"

// idLocks hands out one mutex per subscription id, refcounted so the map
// does not grow with the number of records ever touched.
type idLocks struct {
	mu   sync.Mutex
	held map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func newIDLocks() *idLocks {
	return &idLocks{held: make(map[string]*idLock)}
}

// Lock acquires the mutex for id and returns the matching unlock func.
func (l *idLocks) Lock(id string) func() {
	l.mu.Lock()
	e, ok := l.held[id]
	if !ok {
		e = &idLock{}
		l.held[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
