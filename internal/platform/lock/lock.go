// Package lock provides the keyed mutual exclusion used to serialise
// auto-match runs on one reconciliation account.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SscSPs/ledger_recon/internal/apperrors"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

// RedisLocker takes locks with SET NX so that every API instance sharing
// the Redis server sees the same holder.
type RedisLocker struct {
	client   redis.UniversalClient
	newValue func() string
}

// NewRedisLocker creates a locker on client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client, newValue: uuid.NewString}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Acquire sets key to a value only this holder knows, expiring after ttl.
// The release func deletes the key only if that value is still stored.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	value := l.newValue()
	ok, err := l.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewConflictError("lock for key %s is already held", key)
	}

	release := func(ctx context.Context) error {
		result, err := l.client.Eval(ctx, unlockScript, []string{key}, value).Result()
		if err != nil {
			return err
		}
		if result == int64(0) {
			return fmt.Errorf("unlock failed, either lock expired or you're not the lock holder for key %s", key)
		}
		return nil
	}
	return release, nil
}
