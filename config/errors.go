package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every error preventing the service configuration
// from being resolved.
var ErrConfiguration = errors.New("configuration error")

// MissingConfigurationError lists the environment variables an environment
// requires but which are unset or empty.
type MissingConfigurationError struct {
	Names []string
}

func (e *MissingConfigurationError) Error() string {
	return "missing environment variables: " + strings.Join(e.Names, ", ")
}

func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnknownEnvironmentError is returned for a key outside the registry.
type UnknownEnvironmentError struct {
	Key   string
	Valid []Environment
}

func (e *UnknownEnvironmentError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, env := range e.Valid {
		valid[i] = string(env)
	}
	return fmt.Sprintf("unknown environment %q (valid: %s)", e.Key, strings.Join(valid, ", "))
}

func (e *UnknownEnvironmentError) Is(target error) bool {
	return target == ErrConfiguration
}

// PeerUnavailableError is returned when the py-youwol peer cannot provide the
// environment a hybrid configuration is built from.
type PeerUnavailableError struct {
	URL string
	Err error
}

func (e *PeerUnavailableError) Error() string {
	return fmt.Sprintf("peer %s unavailable: %v", e.URL, e.Err)
}

func (e *PeerUnavailableError) Unwrap() error {
	return e.Err
}

func (e *PeerUnavailableError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
