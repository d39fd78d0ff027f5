// Package auth validates caller tokens and provides the admin credentials of
// the service.
//
// A Descriptor names the authentication scheme of an environment: remote-oidc
// tokens are checked by an OIDCValidator against the issuer key set, while
// local-passthrough trusts a fixed local identity. Validation failures wrap
// one of two sentinels so callers can tell an invalid token
// (ErrCredentialInvalid) from an issuer outage (ErrIssuerUnreachable).
//
// Admin credentials are oauth2.TokenSource values: a client credentials
// grant for credentials read from the environment or from the secrets file,
// or a static token borrowed from a running development environment.
package auth
