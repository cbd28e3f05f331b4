package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder can keep a lock.
	DefaultTTL = 5 * time.Minute

	// DefaultRetryDelay is the delay between acquisition attempts while blocking.
	DefaultRetryDelay = 100 * time.Millisecond

	keyPrefix = "shortlink:lock:"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisFactory creates locks shared by every process using the same Redis.
type RedisFactory struct {
	client     *redis.Client
	retryDelay time.Duration
}

func NewRedisFactory(client *redis.Client, retryDelay time.Duration) *RedisFactory {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &RedisFactory{client: client, retryDelay: retryDelay}
}

func (f *RedisFactory) CreateLock(name string, ttl time.Duration) Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisLock{
		client:     f.client,
		key:        keyPrefix + name,
		token:      uuid.New().String(),
		ttl:        ttl,
		retryDelay: f.retryDelay,
	}
}

type redisLock struct {
	client     *redis.Client
	key        string
	token      string
	ttl        time.Duration
	retryDelay time.Duration
}

func (l *redisLock) Acquire(ctx context.Context, blocking bool) (bool, error) {
	for {
		ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok || !blocking {
			return ok, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *redisLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return ErrNotHeld
	}
	return nil
}
