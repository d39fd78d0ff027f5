package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
	sessionshttp "github.com/youwol/cdn-sessions-storage/http"
)

// AssembleFunc builds the middleware chain of a configuration.
type AssembleFunc func(desc auth.Descriptor, cache sessions.Cache, policy sessionshttp.PathPredicate, opts ...sessionshttp.AssembleOption) (sessionshttp.Chain, error)

// Resolver turns an environment key into the ServiceConfiguration of the
// process. The first successful resolution is frozen: later calls return the
// same instance whatever their key.
type Resolver struct {
	settings *Settings
	lookup   LookupFunc
	peer     PeerLookup
	client   *http.Client
	assemble AssembleFunc
	logger   *slog.Logger
	observe  func(Environment)

	mu       sync.Mutex
	resolved *ServiceConfiguration
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithLookup replaces the process environment as the source of variables.
func WithLookup(lookup LookupFunc) ResolverOption {
	return func(r *Resolver) { r.lookup = lookup }
}

// WithPeer replaces the HTTP lookup of the hybrid peer.
func WithPeer(p PeerLookup) ResolverOption {
	return func(r *Resolver) { r.peer = p }
}

// WithHTTPClient sets the client used for the peer, the issuer and storage
// tokens.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithAssembler replaces sessionshttp.Assemble.
func WithAssembler(f AssembleFunc) ResolverOption {
	return func(r *Resolver) { r.assemble = f }
}

// WithLogger sets the logger of the resolver and of the request chain.
// Without it, the default logger current at resolution time is used.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithPipelineObserver registers f, called each time the resolution pipeline
// starts.
func WithPipelineObserver(f func(Environment)) ResolverOption {
	return func(r *Resolver) { r.observe = f }
}

// NewResolver returns a resolver reading settings. Nil settings use the
// defaults.
func NewResolver(settings *Settings, opts ...ResolverOption) *Resolver {
	if settings == nil {
		settings = DefaultSettings()
	}
	r := &Resolver{
		settings: settings,
		lookup:   OSLookup(),
		assemble: sessionshttp.Assemble,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the configuration of the environment named key. The key
// must name a known environment. Once a call succeeds its result is returned
// to every later caller; failures are not cached.
func (r *Resolver) Resolve(ctx context.Context, key string) (*ServiceConfiguration, error) {
	env, err := ParseEnvironment(key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil {
		if r.resolved.Environment != env {
			r.log().Warn("configuration already resolved",
				"resolved", r.resolved.Environment, "requested", env)
		}
		return r.resolved, nil
	}

	cfg, err := r.run(ctx, env)
	if err != nil {
		return nil, err
	}
	r.resolved = cfg
	return cfg, nil
}

// Resolved returns the frozen configuration, nil before the first success.
func (r *Resolver) Resolved() *ServiceConfiguration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}

func (r *Resolver) run(ctx context.Context, env Environment) (cfg *ServiceConfiguration, err error) {
	if r.observe != nil {
		r.observe(env)
	}
	v, _ := variantOf(env)

	vars, err := RequireEnv(r.lookup, v.required...)
	if err != nil {
		return nil, err
	}

	in := Inputs{Vars: vars, Settings: r.settings, Peer: r.peer, HTTPClient: r.client}
	if env == Hybrid && in.Peer == nil {
		in.Peer = NewHTTPPeer(r.settings.Peer.Port, r.settings.Peer.Timeout, r.client)
	}

	sel, err := Select(ctx, env, in)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			release(sel, r.log())
		}
	}()

	cfg = &ServiceConfiguration{
		Environment:      env,
		Server:           sel.Server,
		Storage:          sel.Storage,
		Cache:            sel.Cache,
		Auth:             sel.Auth,
		Unprotected:      NewPathPolicy(v.exempt...),
		AdminCredentials: sel.AdminCredentials,
		LogSink:          v.sink,
		Backends:         sel.Backends,
	}
	if r.settings.Server.Port != 0 {
		cfg.Server.Port = r.settings.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chain, err := r.assemble(cfg.Auth, cfg.Cache, cfg.Unprotected,
		sessionshttp.WithHTTPClient(r.client),
		sessionshttp.WithLogger(r.log()),
		sessionshttp.WithMaxTTL(r.settings.Cache.MaxTTL),
		sessionshttp.WithValidationRate(r.settings.Auth.ValidationRate, r.settings.Auth.ValidationBurst),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	cfg.Middleware = chain

	r.log().Info("configuration resolved",
		"env", env,
		"port", cfg.Server.Port,
		"root_path", cfg.Server.RootPath,
		"storage", cfg.Backends.StorageURL,
		"cache", cfg.Backends.CacheKind,
		"auth", cfg.Auth.Kind,
		"admin", cfg.Backends.AdminSource,
	)
	return cfg, nil
}

func (r *Resolver) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

func release(sel *Selection, logger *slog.Logger) {
	for _, h := range []any{sel.Storage, sel.Cache} {
		if c, ok := h.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("release backend", "err", err)
			}
		}
	}
}
