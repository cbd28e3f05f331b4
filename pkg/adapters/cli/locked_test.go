package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlink/pkg/lock"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

func newRedisLocks(t *testing.T) lock.Factory {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.NewRedisFactory(client, 10*time.Millisecond)
}

func TestLockedRunner_RunsAndReleases(t *testing.T) {
	ctx := context.Background()
	locks := newRedisLocks(t)
	runner := NewLockedRunner(locks, time.Minute, &bytes.Buffer{}, logger.NewNop())

	called := false
	err := runner.Run(ctx, LockedCommandConfig{Name: "db:create", Blocking: true}, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// Released: a non-blocking attempt gets it straight away.
	acquired, err := locks.CreateLock("db:create", time.Minute).Acquire(ctx, false)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLockedRunner_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	locks := newRedisLocks(t)
	runner := NewLockedRunner(locks, time.Minute, &bytes.Buffer{}, logger.NewNop())
	boom := errors.New("boom")

	err := runner.Run(ctx, LockedCommandConfig{Name: "db:create", Blocking: true}, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acquired, err := locks.CreateLock("db:create", time.Minute).Acquire(ctx, false)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestLockedRunner_NonBlockingContention(t *testing.T) {
	ctx := context.Background()
	locks := newRedisLocks(t)
	holder := locks.CreateLock("link:import", time.Minute)
	acquired, err := holder.Acquire(ctx, false)
	require.NoError(t, err)
	require.True(t, acquired)

	out := &bytes.Buffer{}
	runner := NewLockedRunner(locks, time.Minute, out, logger.NewNop())

	called := false
	err = runner.Run(ctx, LockedCommandConfig{Name: "link:import"}, func(context.Context) error {
		called = true
		return nil
	})

	assert.False(t, called)
	assert.Equal(t, ExitWarning, ExitCode(err))
	assert.Contains(t, out.String(), `Command "link:import" is already in progress`)
}

func TestLockedRunner_BlockingWaitsForHolder(t *testing.T) {
	ctx := context.Background()
	locks := newRedisLocks(t)
	holder := locks.CreateLock("db:create", time.Minute)
	acquired, err := holder.Acquire(ctx, false)
	require.NoError(t, err)
	require.True(t, acquired)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = holder.Release(context.Background())
	}()

	runner := NewLockedRunner(locks, time.Minute, &bytes.Buffer{}, logger.NewNop())
	called := false
	err = runner.Run(ctx, LockedCommandConfig{Name: "db:create", Blocking: true}, func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, 3, ExitCode(&ExitCodeError{Code: 3}))
	assert.Equal(t, ExitWarning, ExitCode(&ExitCodeError{Code: ExitWarning, Err: errors.New("busy")}))
}
