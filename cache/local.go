package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// DefaultLocalSize bounds the number of entries of a Local cache.
const DefaultLocalSize = 1024

type entry struct {
	value   []byte
	expires time.Time
}

// Local is an in-process sessions.Cache. Entries expire individually and
// the least recently used entry is evicted once the cache is full.
type Local struct {
	lru    *expirable.LRU[string, entry]
	prefix string
	maxTTL time.Duration
	now    func() time.Time
}

// NewLocal creates a Local cache holding at most size entries, none living
// longer than maxTTL.
func NewLocal(prefix string, size int, maxTTL time.Duration) *Local {
	if size <= 0 {
		size = DefaultLocalSize
	}
	return &Local{
		lru:    expirable.NewLRU[string, entry](size, nil, maxTTL),
		prefix: prefix,
		maxTTL: maxTTL,
		now:    time.Now,
	}
}

func (c *Local) Prefix() string {
	return c.prefix
}

func (c *Local) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	e, ok := c.lookup(key)
	if !ok {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *Local) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("local cache set: %w: ttl must be positive", sessions.ErrInvalidInput)
	}
	if c.maxTTL > 0 && ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	c.lru.Add(c.prefix+key, entry{value: value, expires: c.now().Add(ttl)})
	return nil
}

func (c *Local) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e, ok := c.lookup(key)
	if !ok {
		return 0, sessions.ErrNotFound
	}
	return e.expires.Sub(c.now()), nil
}

// Ping always succeeds.
func (c *Local) Ping(context.Context) error {
	return nil
}

// Len returns the number of live entries.
func (c *Local) Len() int {
	return c.lru.Len()
}

func (c *Local) lookup(key string) (entry, bool) {
	k := c.prefix + key
	e, ok := c.lru.Get(k)
	if !ok {
		return entry{}, false
	}
	if !c.now().Before(e.expires) {
		c.lru.Remove(k)
		return entry{}, false
	}
	return e, true
}
