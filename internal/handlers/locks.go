package handlers

import "sync"

// unitLocks serialises read-modify-save cycles per unit. Entries are dropped
// once no request holds or waits on them.
type unitLocks struct {
	mu    sync.Mutex
	locks map[int64]*unitLock
}

type unitLock struct {
	sync.Mutex
	refs int
}

func (l *unitLocks) lock(id int64) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*unitLock)
	}
	ul := l.locks[id]
	if ul == nil {
		ul = &unitLock{}
		l.locks[id] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.Lock()
	return func() {
		ul.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
