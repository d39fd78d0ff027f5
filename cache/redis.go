package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// DefaultRedisPort is used when a redis host is given without a port.
const DefaultRedisPort = "6379"

// Redis is a sessions.Cache backed by a redis server. Every key is stored
// under the prefix given at construction.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing redis client.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// DialRedis returns a Redis cache for host. No connection is made until the
// first command.
func DialRedis(host, prefix string) *Redis {
	return NewRedis(redis.NewClient(&redis.Options{
		Addr:         Addr(host),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}), prefix)
}

// Addr appends the default redis port to host when it has none.
func Addr(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, DefaultRedisPort)
}

// Prefix returns the key prefix.
func (c *Redis) Prefix() string {
	return c.prefix
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("redis set: %w: ttl must be positive", sessions.ErrInvalidInput)
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of key. Keys stored without expiry
// report zero.
func (c *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.client.PTTL(ctx, c.prefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis ttl: %w", err)
	}
	// -2: missing key, -1: no expiry
	switch {
	case d == -2:
		return 0, sessions.ErrNotFound
	case d < 0:
		return 0, nil
	}
	return d, nil
}

// Ping verifies the server is reachable.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}
