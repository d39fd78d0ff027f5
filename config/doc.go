// Package config resolves the configuration of the cdn-sessions-storage
// process for one deployment environment.
//
// # Environments
//
// The registry is closed: local, tricot, remote-clients, hybrid and prod.
// Each environment declares the variables it requires, its server defaults,
// its log sink, the path segments exempt from authentication and how its
// storage, cache, authentication and admin credentials are built.
//
// # Resolution
//
// A Resolver runs, for the first successful call only:
//
//  1. the environment variable gate (RequireEnv), reporting every missing
//     variable at once;
//  2. backend selection (Select);
//  3. validation of the resulting ServiceConfiguration;
//  4. assembly of the request middleware chain.
//
// The result is frozen and shared: later calls return the same pointer.
//
//	r := config.NewResolver(settings)
//	cfg, err := r.Resolve(ctx, "tricot")
//	if errors.Is(err, config.ErrConfiguration) {
//	    // missing variables, unknown environment, peer unavailable...
//	}
//
// # Settings
//
// Operator tunables are loaded by LoadSettings with the following precedence
// (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s), merged left-to-right
//  3. Environment variables (CDN_SESSIONS_ prefix, "." replaced by "_")
//  4. CLI flags
//
// Secrets never come from settings.
package config
