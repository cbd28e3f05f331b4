// Package lock provides named locks used to serialize CLI commands across processes.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotHeld is returned when releasing a lock this instance does not hold.
var ErrNotHeld = errors.New("lock not held")

// Lock is a single named lock instance.
type Lock interface {
	// Acquire takes the lock. When blocking, it waits until the lock is free
	// or ctx is done; otherwise it returns false immediately on contention.
	Acquire(ctx context.Context, blocking bool) (bool, error)
	Release(ctx context.Context) error
}

// Factory creates locks by name.
type Factory interface {
	CreateLock(name string, ttl time.Duration) Lock
}
