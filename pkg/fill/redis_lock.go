package fill

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	goredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	lockPrefix     = "media-gateway:fill:"
	lockRetryDelay = 250 * time.Millisecond
)

// RedisLocker holds a redsync mutex per key for the duration of a fill.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
}

// NewRedisClient connects to redisURL, e.g. redis://:password@localhost:6379/0
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisLocker expires locks after expiry, which should outlast a fill.
// Waiters retry for about as long before giving up.
func NewRedisLocker(client redis.UniversalClient, expiry time.Duration) *RedisLocker {
	tries := int(expiry / lockRetryDelay)
	if tries < 1 {
		tries = 1
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
		tries:  tries,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(lockPrefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(lockRetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := mutex.UnlockContext(ctx); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to release fill lock")
		}
	}, nil
}
