// Package lock provides per-user locking for balance operations within one process.
// It narrows contention before requests reach the database; the ledger's
// conditional updates remain the source of truth across replicas.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLockTimeout is returned when another request for the same user holds
// the lock past the timeout.
var ErrLockTimeout = errors.New("another request for this account is in progress")

// userMutex wraps a mutex with a waiter count so idle entries can be dropped.
type userMutex struct {
	mu      sync.Mutex
	holders int
}

// UserLock provides per-user locking keyed by account id.
type UserLock struct {
	mu    sync.Mutex
	locks map[string]*userMutex
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{locks: make(map[string]*userMutex)}
}

// acquire returns the entry for userID with its holder count incremented.
func (ul *UserLock) acquire(userID string) *userMutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m, ok := ul.locks[userID]
	if !ok {
		m = &userMutex{}
		ul.locks[userID] = m
	}
	m.holders++
	return m
}

// release drops one holder and forgets the entry once nobody references it.
func (ul *UserLock) release(userID string, m *userMutex) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	m.holders--
	if m.holders == 0 {
		delete(ul.locks, userID)
	}
}

// Lock acquires the lock for a user.
func (ul *UserLock) Lock(userID string) {
	m := ul.acquire(userID)
	m.mu.Lock()
}

// Unlock releases the lock for a user.
func (ul *UserLock) Unlock(userID string) {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}
	m.mu.Unlock()
	ul.release(userID, m)
}

// TryLock attempts to acquire the lock without blocking.
func (ul *UserLock) TryLock(userID string) bool {
	m := ul.acquire(userID)
	if m.mu.TryLock() {
		return true
	}
	ul.release(userID, m)
	return false
}

// LockWithTimeout attempts to acquire the lock until the timeout or ctx expires.
func (ul *UserLock) LockWithTimeout(ctx context.Context, userID string, timeout time.Duration) bool {
	m := ul.acquire(userID)

	done := make(chan struct{})
	go func() {
		m.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiter still owns a claim on the mutex; hand it back once it gets it.
		go func() {
			<-done
			m.mu.Unlock()
			ul.release(userID, m)
		}()
		return false
	}
}

// WithLock executes fn while holding the user's lock.
func (ul *UserLock) WithLock(userID string, fn func() error) error {
	ul.Lock(userID)
	defer ul.Unlock(userID)
	return fn()
}

// WithLockContext executes fn while holding the user's lock, giving up with
// ErrLockTimeout when the lock is not acquired in time.
func (ul *UserLock) WithLockContext(ctx context.Context, userID string, timeout time.Duration, fn func() error) error {
	if !ul.LockWithTimeout(ctx, userID, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer ul.Unlock(userID)

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}

// IsLocked reports whether a user currently holds a lock. Point-in-time only.
func (ul *UserLock) IsLocked(userID string) bool {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	ul.mu.Unlock()
	if !ok {
		return false
	}
	if m.mu.TryLock() {
		m.mu.Unlock()
		return false
	}
	return true
}

// Size returns the number of tracked users.
func (ul *UserLock) Size() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.locks)
}
