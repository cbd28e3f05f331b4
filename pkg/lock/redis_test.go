package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisFactory(t *testing.T) (*RedisFactory, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisFactory(client, 10*time.Millisecond), mr
}

func TestRedisLock_NonBlockingContention(t *testing.T) {
	factory, _ := newTestRedisFactory(t)
	ctx := context.Background()

	first := factory.CreateLock("db:create", time.Minute)
	second := factory.CreateLock("db:create", time.Minute)

	ok, err := first.Acquire(ctx, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, false)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx, false)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_BlockingWaitsForRelease(t *testing.T) {
	factory, _ := newTestRedisFactory(t)
	ctx := context.Background()

	holder := factory.CreateLock("db:create", time.Minute)
	waiter := factory.CreateLock("db:create", time.Minute)

	ok, err := holder.Acquire(ctx, true)
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = holder.Release(ctx)
	}()

	start := time.Now()
	ok, err = waiter.Acquire(ctx, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRedisLock_BlockingHonoursContext(t *testing.T) {
	factory, _ := newTestRedisFactory(t)

	holder := factory.CreateLock("db:create", time.Minute)
	ok, err := holder.Acquire(context.Background(), true)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	ok, err = factory.CreateLock("db:create", time.Minute).Acquire(ctx, true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisLock_ReleaseNotHeld(t *testing.T) {
	factory, mr := newTestRedisFactory(t)
	ctx := context.Background()

	l := factory.CreateLock("db:create", time.Minute)
	ok, err := l.Acquire(ctx, false)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	assert.ErrorIs(t, l.Release(ctx), ErrNotHeld)
}
