package main

import (
	"context"
	"errors"

	"github.com/youwol/cdn-sessions-storage/config"
)

type resolverKey struct{}

// withResolver stores the process-wide resolver.
func withResolver(ctx context.Context, r *config.Resolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

func resolverFromContext(ctx context.Context) (*config.Resolver, error) {
	r, ok := ctx.Value(resolverKey{}).(*config.Resolver)
	if !ok || r == nil {
		return nil, errors.New("resolver not found in context")
	}
	return r, nil
}
