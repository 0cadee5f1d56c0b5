package creditlimit

import "sync"

// Locker serializes the limit check and the following write per cardholder,
// so two submissions for the same cardholder cannot both pass the check
// against the same history.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the cardholder's lock is held and returns its unlock func.
func (l *Locker) Lock(cardholderID string) func() {
	l.mu.Lock()
	m, ok := l.locks[cardholderID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[cardholderID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
