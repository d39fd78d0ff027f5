package sessions

import "context"

type identityKey struct{}

// WithIdentity returns a new context carrying the caller identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the caller identity from context.
// Returns ErrUnauthorized if none was attached.
func IdentityFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, ErrUnauthorized
	}
	return id, nil
}
