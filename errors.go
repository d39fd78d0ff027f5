package sessions

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when no caller identity is available
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstreamRejected is returned when a backend refuses the service's own
	// credentials. The caller is not at fault.
	ErrUpstreamRejected = errors.New("upstream rejected service credentials")
)
