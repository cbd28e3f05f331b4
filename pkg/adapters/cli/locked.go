package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/lock"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

// LockedCommandConfig names the lock a command runs under.
type LockedCommandConfig struct {
	Name string
	// Blocking waits for the lock instead of giving up on contention.
	Blocking bool
}

// LockedRunner runs commands while holding their lock.
type LockedRunner struct {
	factory lock.Factory
	ttl     time.Duration
	out     io.Writer
	logger  logger.Logger
}

func NewLockedRunner(factory lock.Factory, ttl time.Duration, out io.Writer, log logger.Logger) *LockedRunner {
	return &LockedRunner{factory: factory, ttl: ttl, out: out, logger: log}
}

// Run acquires the lock described by cfg, runs fn and releases the lock on
// every exit path. Contention on a non-blocking lock yields ExitWarning.
func (r *LockedRunner) Run(ctx context.Context, cfg LockedCommandConfig, fn func(ctx context.Context) error) (err error) {
	l := r.factory.CreateLock(cfg.Name, r.ttl)

	acquired, err := l.Acquire(ctx, cfg.Blocking)
	if err != nil {
		return fmt.Errorf("acquire lock %q: %w", cfg.Name, err)
	}
	if !acquired {
		fmt.Fprintf(r.out, "Command \"%s\" is already in progress. Skipping.\n", cfg.Name)
		return &ExitCodeError{Code: ExitWarning}
	}

	defer func() {
		// The holder may be gone with its context, so release on a fresh one.
		if releaseErr := l.Release(context.Background()); releaseErr != nil {
			r.logger.Warn("Failed to release command lock",
				logger.String("lock", cfg.Name), logger.Err(releaseErr))
		}
	}()

	r.logger.Debug("Command lock acquired", logger.String("lock", cfg.Name))
	return fn(ctx)
}
