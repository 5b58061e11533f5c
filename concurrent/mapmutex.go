// Copyright 2026 The pureflashblade-mcp Authors

package concurrent

import (
	"sync"
)

// MapMutex hands out one mutex per key. Entries are reference counted and removed
// once nobody holds or waits on them, so the map does not grow with every key ever seen.
type MapMutex struct {
	mutex sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// NewMapMutex returns an empty MapMutex
func NewMapMutex() *MapMutex {
	return &MapMutex{locks: make(map[string]*refLock)}
}

// Lock acquires the mutex for key, blocking until it is available
func (m *MapMutex) Lock(key string) {
	m.mutex.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &refLock{}
		m.locks[key] = lock
	}
	lock.refs++
	m.mutex.Unlock()

	lock.Lock()
}

// Unlock releases the mutex for key. Unlocking a key that is not locked panics, like sync.Mutex.
func (m *MapMutex) Unlock(key string) {
	m.mutex.Lock()
	lock, ok := m.locks[key]
	if !ok {
		m.mutex.Unlock()
		panic("concurrent: unlock of unlocked key " + key)
	}
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, key)
	}
	m.mutex.Unlock()

	lock.Unlock()
}

// Len reports how many keys are currently held or waited on
func (m *MapMutex) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.locks)
}
