package lock

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/mutex/v2"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9.-]+`)

// MachineFactory creates locks shared by every process on this host.
// The TTL is ignored: the OS releases the lock when the holder exits.
type MachineFactory struct {
	clock clock.Clock
	delay time.Duration
}

func NewMachineFactory(clk clock.Clock, delay time.Duration) *MachineFactory {
	if clk == nil {
		clk = clock.WallClock
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &MachineFactory{clock: clk, delay: delay}
}

func (f *MachineFactory) CreateLock(name string, _ time.Duration) Lock {
	return &machineLock{name: machineLockName(name), clock: f.clock, delay: f.delay}
}

// machineLockName maps name onto the characters juju/mutex accepts.
func machineLockName(name string) string {
	n := invalidNameChars.ReplaceAllString(strings.ToLower(name), "-")
	n = strings.Trim(n, "-.")
	return "shortlink-" + n
}

type machineLock struct {
	name  string
	clock clock.Clock
	delay time.Duration

	mu       sync.Mutex
	releaser mutex.Releaser
}

func (l *machineLock) Acquire(ctx context.Context, blocking bool) (bool, error) {
	spec := mutex.Spec{
		Name:   l.name,
		Clock:  l.clock,
		Delay:  l.delay,
		Cancel: ctx.Done(),
	}
	if !blocking {
		spec.Timeout = time.Nanosecond
	}

	releaser, err := mutex.Acquire(spec)
	switch {
	case errors.Is(err, mutex.ErrTimeout):
		return false, nil
	case errors.Is(err, mutex.ErrCancelled):
		return false, ctx.Err()
	case err != nil:
		return false, err
	}

	l.mu.Lock()
	l.releaser = releaser
	l.mu.Unlock()
	return true, nil
}

func (l *machineLock) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.releaser == nil {
		return ErrNotHeld
	}
	l.releaser.Release()
	l.releaser = nil
	return nil
}
