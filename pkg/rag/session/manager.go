// Package session serializes work on a single conversation.
package session

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locker is a keyed mutex. Entries exist only while someone holds or waits
// for them.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the session is free and returns its unlock func.
func (l *Locker) Lock(session string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[session]
	if !ok {
		e = &lockEntry{}
		l.locks[session] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, session)
			}
			l.mu.Unlock()
		})
	}
}

// Active reports how many sessions currently have holders or waiters.
func (l *Locker) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
