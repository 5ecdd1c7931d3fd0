// Package redis provides a Redis-backed lease.Locker for multi-worker deployments.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/automaton/pkg/lease"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "automaton:lease:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker leases keys with SET NX PX.
type Locker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewLocker creates a locker on an existing client.
func NewLocker(client redis.UniversalClient, logger *slog.Logger) *Locker {
	return &Locker{
		client: client,
		logger: logger.With("module", "redis_lease"),
	}
}

// Connect parses a redis:// URL, pings the server and returns a locker.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Locker, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewLocker(client, logger), nil
}

// Acquire claims key for ttl unless it is already held.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (lease.Release, bool, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lease on %s: %w", key, err)
	}

	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		if err != nil {
			return fmt.Errorf("failed to release lease on %s: %w", key, err)
		}

		return nil
	}

	return release, true, nil
}

// Close closes the underlying client.
func (l *Locker) Close() error {
	return l.client.Close()
}
