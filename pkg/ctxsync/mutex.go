// Package ctxsync contains synchronization primitives whose blocking calls
// can be abandoned through a [context.Context].
package ctxsync

import "context"

// Mutex is a mutual exclusion lock. The zero value is not usable; create
// mutexes with [NewMutex].
type Mutex struct {
	sem chan struct{}
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{sem: make(chan struct{}, 1)}
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.sem <- struct{}{}
}

// LockWithContext blocks until the mutex is acquired or ctx is done. An
// already canceled context never acquires the lock.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.sem <- struct{}{}:
		return nil
	}
}

// TryLock acquires the mutex if it is free and reports whether it did.
func (m *Mutex) TryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock releases the mutex. Unlocking an unlocked mutex panics.
func (m *Mutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
