// Package syncutil provides keyed mutual exclusion.
package syncutil

import "sync"

// KeyLock is a lazily-populated set of mutexes addressed by string key. The
// bundle pipeline uses it to serialize runs sharing one staging root.
type KeyLock struct {
	locks map[string]*sync.Mutex
	guard sync.Mutex
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: map[string]*sync.Mutex{}}
}

func (l *KeyLock) getLock(key string) *sync.Mutex {
	l.guard.Lock()
	defer l.guard.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}

	return lock
}

// Lock acquires the mutex for key, creating it on first use.
func (l *KeyLock) Lock(key string) {
	l.getLock(key).Lock()
}

// Unlock releases the mutex for key.
func (l *KeyLock) Unlock(key string) {
	l.getLock(key).Unlock()
}
