package auth

import "errors"

var (
	// ErrNoCredentials is returned when a request carries no token.
	ErrNoCredentials = errors.New("no credentials")
	// ErrCredentialInvalid is returned when a token is malformed, expired or
	// not signed by the issuer.
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrIssuerUnreachable is returned when the issuer could not be queried.
	// It denotes an outage, not a client error.
	ErrIssuerUnreachable = errors.New("issuer unreachable")
)
