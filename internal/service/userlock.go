package service

import "sync"

// UserLocks hands out one mutex per user. Upload commits and deletions of the
// same user run one at a time; different users never wait on each other.
// Entries are kept for the life of the process.
type UserLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[int64]*sync.Mutex)}
}

// Lock blocks until userID's mutex is held and returns its unlock function.
func (l *UserLocks) Lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
