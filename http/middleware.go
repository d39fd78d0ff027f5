package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
)

// RequestIDHeader carries the request id, both ways.
const RequestIDHeader = "X-Request-Id"

// Outcomes of the authentication layer, as logged by the context layer.
const (
	OutcomeExempt        = "exempt"
	OutcomeLocal         = "local"
	OutcomeCached        = "cached"
	OutcomeAuthenticated = "authenticated"
	OutcomeRejected      = "rejected"
)

// validationTimeout bounds a single issuer validation, including the wait for
// the validation rate limiter.
const validationTimeout = 10 * time.Second

// PathPredicate classifies request paths exempt from authentication.
type PathPredicate interface {
	Unprotected(path string) bool
}

// PathPredicateFunc adapts a function to PathPredicate.
type PathPredicateFunc func(path string) bool

func (f PathPredicateFunc) Unprotected(path string) bool { return f(path) }

type requestInfo struct {
	id       string
	outcome  string
	reason   string
	identity sessions.Identity
}

type requestInfoKey struct{}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

func record(r *http.Request, outcome, reason string, id sessions.Identity) {
	if info := infoFrom(r.Context()); info != nil {
		info.outcome = outcome
		info.reason = reason
		info.identity = id
	}
}

// RequestIDFromContext returns the id assigned by ContextMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// ContextMiddleware assigns a request id and logs every request once it
// completes, rejected ones included. A nil logger uses slog.Default.
func ContextMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			info := &requestInfo{id: id}
			w.Header().Set(RequestIDHeader, id)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

			l := logger
			if l == nil {
				l = slog.Default()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			attrs := []slog.Attr{
				slog.String("request_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}
			if info.outcome != "" {
				attrs = append(attrs, slog.String("auth", info.outcome))
			}
			if info.reason != "" {
				attrs = append(attrs, slog.String("reason", info.reason))
			}
			if !info.identity.IsZero() {
				attrs = append(attrs, slog.String("user", info.identity.Subject))
			}
			l.LogAttrs(r.Context(), level, "request", attrs...)
		})
	}
}

// PassthroughMiddleware attaches id to every request.
func PassthroughMiddleware(id sessions.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record(r, OutcomeLocal, "", id)
			next.ServeHTTP(w, r.WithContext(sessions.WithIdentity(r.Context(), id)))
		})
	}
}

// AuthConfig configures AuthMiddleware.
type AuthConfig struct {
	Validator auth.Validator
	Providers []auth.TokenProvider
	Policy    PathPredicate

	// Cache remembers validated tokens. Optional.
	Cache sessions.Cache
	// MaxTTL caps the lifetime of cached validations. Zero means the token
	// expiry alone bounds it.
	MaxTTL time.Duration
	// Limiter throttles validations sent to the issuer. Optional.
	Limiter *rate.Limiter
	// Logger receives cache failures. Defaults to slog.Default.
	Logger *slog.Logger

	now func() time.Time
}

type authenticator struct {
	cfg   AuthConfig
	group singleflight.Group
}

// AuthMiddleware rejects requests without a valid token, except those whose
// path is exempt. Validated tokens are cached until they expire; concurrent
// validations of one token share a single issuer round trip.
func AuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = []auth.TokenProvider{auth.BearerProvider{}}
	}
	a := &authenticator{cfg: cfg}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.cfg.Policy != nil && a.cfg.Policy.Unprotected(r.URL.Path) {
				record(r, OutcomeExempt, "", sessions.Identity{})
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.Extract(r, a.cfg.Providers)
			if err != nil {
				record(r, OutcomeRejected, ReasonNotAuthenticated, sessions.Identity{})
				HandleError(w, err)
				return
			}

			id, cached, err := a.identify(r.Context(), token)
			if err != nil {
				record(r, OutcomeRejected, reasonOf(err), sessions.Identity{})
				HandleError(w, err)
				return
			}

			outcome := OutcomeAuthenticated
			if cached {
				outcome = OutcomeCached
			}
			record(r, outcome, "", id)
			next.ServeHTTP(w, r.WithContext(sessions.WithIdentity(r.Context(), id)))
		})
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, auth.ErrIssuerUnreachable):
		return ReasonIssuerUnreachable
	case errors.Is(err, auth.ErrCredentialInvalid):
		return ReasonCredentialInvalid
	default:
		return ReasonInternal
	}
}

// CacheKey returns the cache key of a token. Raw tokens are never stored.
func CacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}

func (a *authenticator) identify(ctx context.Context, token string) (sessions.Identity, bool, error) {
	key := CacheKey(token)

	if a.cfg.Cache != nil {
		data, ok, err := a.cfg.Cache.Get(ctx, key)
		switch {
		case err != nil:
			a.cfg.Logger.Warn("token cache read failed", "err", err)
		case ok:
			var id sessions.Identity
			if err := json.Unmarshal(data, &id); err == nil && !id.IsZero() {
				return id, true, nil
			}
		}
	}

	v, err, _ := a.group.Do(key, func() (any, error) {
		// shared by every waiter, so not bound to the first request
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), validationTimeout)
		defer cancel()

		if a.cfg.Limiter != nil {
			if err := a.cfg.Limiter.Wait(vctx); err != nil {
				return nil, fmt.Errorf("%w: validation rate exceeded: %w", auth.ErrIssuerUnreachable, err)
			}
		}

		claims, err := a.cfg.Validator.Validate(vctx, token)
		if err != nil {
			return nil, err
		}
		a.remember(vctx, key, claims)
		return claims.Identity, nil
	})
	if err != nil {
		return sessions.Identity{}, false, err
	}
	return v.(sessions.Identity), false, nil
}

func (a *authenticator) remember(ctx context.Context, key string, claims auth.Claims) {
	if a.cfg.Cache == nil {
		return
	}
	ttl := claims.Expiry.Sub(a.cfg.now())
	if a.cfg.MaxTTL > 0 && ttl > a.cfg.MaxTTL {
		ttl = a.cfg.MaxTTL
	}
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(claims.Identity)
	if err != nil {
		return
	}
	if err := a.cfg.Cache.Set(ctx, key, data, ttl); err != nil {
		a.cfg.Logger.Warn("token cache write failed", "err", err)
	}
}
