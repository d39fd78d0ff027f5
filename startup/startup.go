// Package startup runs the one-time initialization of the service before it
// accepts traffic.
package startup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/config"
)

// Hook names of the default chain.
const (
	HookStorage          = "storage"
	HookCache            = "cache"
	HookAdminCredentials = "admin-credentials"
)

// Hook is one named initialization step.
type Hook struct {
	Name string
	Run  func(ctx context.Context, cfg *config.ServiceConfiguration) error
}

// HookError reports the hook that stopped the chain.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("startup hook %s: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// Chain runs its hooks in order, once.
type Chain struct {
	hooks  []Hook
	logger *slog.Logger

	once sync.Once
	err  error
}

// NewChain returns a chain of hooks.
func NewChain(hooks ...Hook) *Chain {
	return &Chain{hooks: hooks, logger: slog.Default()}
}

// DefaultChain returns the storage, cache and admin-credentials hooks.
func DefaultChain() *Chain {
	return NewChain(StorageHook(), CacheHook(), AdminCredentialsHook())
}

// WithLogger sets the logger reporting hook progress.
func (c *Chain) WithLogger(l *slog.Logger) *Chain {
	c.logger = l
	return c
}

// Names returns the hook names in run order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.hooks))
	for i, h := range c.hooks {
		names[i] = h.Name
	}
	return names
}

// RunOnce runs the hooks sequentially on the first call and stops at the
// first failure, returned as a *HookError. Later calls return the first
// call's result without running anything.
func (c *Chain) RunOnce(ctx context.Context, cfg *config.ServiceConfiguration) error {
	c.once.Do(func() {
		c.err = c.run(ctx, cfg)
	})
	return c.err
}

func (c *Chain) run(ctx context.Context, cfg *config.ServiceConfiguration) error {
	if cfg == nil {
		return &HookError{Hook: "configuration", Err: errors.New("configuration is not resolved")}
	}
	for _, h := range c.hooks {
		start := time.Now()
		if err := h.Run(ctx, cfg); err != nil {
			c.logger.Error("startup hook failed", "hook", h.Name, "err", err)
			return &HookError{Hook: h.Name, Err: err}
		}
		c.logger.Debug("startup hook done", "hook", h.Name, "duration", time.Since(start))
	}
	return nil
}

// StorageHook checks a networked storage answers, then ensures the bucket
// exists when the storage supports it.
func StorageHook() Hook {
	return Hook{Name: HookStorage, Run: func(ctx context.Context, cfg *config.ServiceConfiguration) error {
		if p, ok := cfg.Storage.(sessions.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
		if i, ok := cfg.Storage.(sessions.Initializer); ok {
			return i.Init(ctx)
		}
		return nil
	}}
}

// CacheHook checks the cache answers when it supports it.
func CacheHook() Hook {
	return Hook{Name: HookCache, Run: func(ctx context.Context, cfg *config.ServiceConfiguration) error {
		if p, ok := cfg.Cache.(sessions.Pinger); ok {
			return p.Ping(ctx)
		}
		return nil
	}}
}

// AdminCredentialsHook fetches a first admin token when the environment has
// admin credentials.
func AdminCredentialsHook() Hook {
	return Hook{Name: HookAdminCredentials, Run: func(_ context.Context, cfg *config.ServiceConfiguration) error {
		if cfg.AdminCredentials == nil {
			return nil
		}
		if _, err := cfg.AdminCredentials.Token(); err != nil {
			return fmt.Errorf("fetch admin token: %w", err)
		}
		return nil
	}}
}
