// Package mutex serializes swap execution per user so a custodial keypair is
// never signing two transactions at once.
package mutex

import (
	"sync"
	"sync/atomic"
	"time"
)

// lastUsed is atomic: the fast path in get touches it under a read lock,
// so concurrent lookups for the same user would otherwise race.
type entry struct {
	mu       *sync.Mutex
	lastUsed atomic.Int64
}

func (e *entry) touch() {
	e.lastUsed.Store(time.Now().UnixNano())
}

// UserMutex hands out one lock per user ID and evicts idle entries so the map
// does not grow without bound.
type UserMutex struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// New creates a UserMutex that evicts locks idle longer than ttl.
func New(ttl time.Duration) *UserMutex {
	um := &UserMutex{
		entries: make(map[string]*entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go um.evictLoop()
	return um
}

// Lock acquires the lock for the given user ID.
func (um *UserMutex) Lock(userID string) {
	um.get(userID).Lock()
}

// Unlock releases the lock for the given user ID.
func (um *UserMutex) Unlock(userID string) {
	um.mu.RLock()
	e, ok := um.entries[userID]
	um.mu.RUnlock()
	if ok {
		e.mu.Unlock()
	}
}

// Size reports how many locks are currently held in the map.
func (um *UserMutex) Size() int {
	um.mu.RLock()
	defer um.mu.RUnlock()
	return len(um.entries)
}

// Stop terminates the background eviction goroutine.
func (um *UserMutex) Stop() {
	um.once.Do(func() { close(um.done) })
}

func (um *UserMutex) get(userID string) *sync.Mutex {
	um.mu.RLock()
	if e, ok := um.entries[userID]; ok {
		e.touch()
		um.mu.RUnlock()
		return e.mu
	}
	um.mu.RUnlock()

	um.mu.Lock()
	defer um.mu.Unlock()
	if e, ok := um.entries[userID]; ok {
		e.touch()
		return e.mu
	}
	e := &entry{mu: &sync.Mutex{}}
	e.touch()
	um.entries[userID] = e
	return e.mu
}

func (um *UserMutex) evictLoop() {
	ticker := time.NewTicker(um.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-um.done:
			return
		case <-ticker.C:
			um.evictIdle()
		}
	}
}

func (um *UserMutex) evictIdle() {
	um.mu.Lock()
	defer um.mu.Unlock()

	cutoff := time.Now().Add(-um.ttl).UnixNano()
	for userID, e := range um.entries {
		if e.lastUsed.Load() < cutoff && e.mu.TryLock() {
			e.mu.Unlock()
			delete(um.entries, userID)
		}
	}
}
