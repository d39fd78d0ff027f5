package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
)

// Layer names.
const (
	LayerContext = "context"
	LayerAuth    = "auth"
)

// Layer is one named middleware of a Chain.
type Layer struct {
	Name string
	Wrap func(http.Handler) http.Handler
}

// Chain is the ordered request pipeline placed in front of the routes: the
// context layer wraps the auth layer, which wraps the handlers.
type Chain struct {
	layers []Layer
}

// Layers returns the layers, outermost first.
func (c Chain) Layers() []Layer {
	return append([]Layer(nil), c.layers...)
}

// Handler wraps next with every layer.
func (c Chain) Handler(next http.Handler) http.Handler {
	for i := len(c.layers) - 1; i >= 0; i-- {
		next = c.layers[i].Wrap(next)
	}
	return next
}

// IsZero reports whether the chain was never assembled.
func (c Chain) IsZero() bool {
	return len(c.layers) == 0
}

type assembleOptions struct {
	validator auth.Validator
	client    *http.Client
	logger    *slog.Logger
	maxTTL    time.Duration
	limiter   *rate.Limiter
}

// AssembleOption customizes Assemble.
type AssembleOption func(*assembleOptions)

// WithValidator replaces the OIDC validator built from the descriptor.
func WithValidator(v auth.Validator) AssembleOption {
	return func(o *assembleOptions) { o.validator = v }
}

// WithHTTPClient sets the client used to reach the issuer.
func WithHTTPClient(c *http.Client) AssembleOption {
	return func(o *assembleOptions) { o.client = c }
}

// WithLogger sets the request logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) AssembleOption {
	return func(o *assembleOptions) { o.logger = l }
}

// WithMaxTTL caps how long a validated token stays cached.
func WithMaxTTL(d time.Duration) AssembleOption {
	return func(o *assembleOptions) { o.maxTTL = d }
}

// WithValidationRate limits validations sent to the issuer to r per second
// with the given burst. A non-positive r disables the limit.
func WithValidationRate(r float64, burst int) AssembleOption {
	return func(o *assembleOptions) {
		if r <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(r), max(burst, 1))
	}
}

// Assemble builds the middleware chain of desc. The chain always has exactly
// two layers: context, then auth.
func Assemble(desc auth.Descriptor, cache sessions.Cache, policy PathPredicate, opts ...AssembleOption) (Chain, error) {
	if err := desc.Validate(); err != nil {
		return Chain{}, fmt.Errorf("assemble middleware: %w", err)
	}
	if policy == nil {
		return Chain{}, errors.New("assemble middleware: path predicate is required")
	}

	var o assembleOptions
	for _, opt := range opts {
		opt(&o)
	}

	var authLayer Layer
	switch desc.Kind {
	case auth.KindRemoteOIDC:
		providers, err := auth.Providers(desc.JWTProviders)
		if err != nil {
			return Chain{}, fmt.Errorf("assemble middleware: %w", err)
		}
		validator := o.validator
		if validator == nil {
			validator = auth.NewOIDCValidator(desc.Issuer, o.client)
		}
		authLayer = Layer{Name: LayerAuth, Wrap: AuthMiddleware(AuthConfig{
			Validator: validator,
			Providers: providers,
			Policy:    policy,
			Cache:     cache,
			MaxTTL:    o.maxTTL,
			Limiter:   o.limiter,
			Logger:    o.logger,
		})}
	case auth.KindLocalPassthrough:
		authLayer = Layer{Name: LayerAuth, Wrap: PassthroughMiddleware(desc.LocalIdentity)}
	}

	return Chain{layers: []Layer{
		{Name: LayerContext, Wrap: ContextMiddleware(o.logger)},
		authLayer,
	}}, nil
}
