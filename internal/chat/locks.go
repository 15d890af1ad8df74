package chat

import "sync"

// sessionLocks serializes turns per session id. Turns on different
// sessions proceed in parallel; two turns on the same session run one
// after the other, so both messages of each turn land adjacently in the
// history.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) {
	l.mu.Lock()
	sl, ok := l.locks[id]
	if !ok {
		sl = &sessionLock{}
		l.locks[id] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
}

func (l *sessionLocks) unlock(id string) {
	l.mu.Lock()
	sl := l.locks[id]
	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	sl.mu.Unlock()
}
