package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxSessionBytes bounds the size of a stored session document.
const MaxSessionBytes = 4 << 20

// SessionKey addresses one session of an application package.
// Package may be scoped ("@scope/name"); Name is a single segment.
type SessionKey struct {
	Package string
	Name    string
}

// Validate checks that the key can be mapped to a storage path.
func (k SessionKey) Validate() error {
	if k.Package == "" || k.Name == "" {
		return fmt.Errorf("validate session key: %w: package and name are required", ErrInvalidInput)
	}

	parts := strings.Split(k.Package, "/")
	switch len(parts) {
	case 1:
	case 2:
		if !strings.HasPrefix(parts[0], "@") || len(parts[0]) < 2 {
			return fmt.Errorf("validate session key: %w: scoped package must start with @", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("validate session key: %w: package %q", ErrInvalidInput, k.Package)
	}

	for _, p := range parts {
		if !IsValidSegment(p) {
			return fmt.Errorf("validate session key: %w: package %q", ErrInvalidInput, k.Package)
		}
	}

	if !IsValidSegment(k.Name) {
		return fmt.Errorf("validate session key: %w: name %q", ErrInvalidInput, k.Name)
	}

	return nil
}

// Path returns the object path of the session owned by id.
func (k SessionKey) Path(id Identity) (string, error) {
	if id.IsZero() {
		return "", fmt.Errorf("session path: %w", ErrUnauthorized)
	}
	if !IsValidSegment(id.Subject) {
		return "", fmt.Errorf("session path: %w: subject %q", ErrInvalidInput, id.Subject)
	}
	if err := k.Validate(); err != nil {
		return "", err
	}
	return id.Subject + "/" + k.Package + "/" + k.Name + ".json", nil
}

// SessionService stores session documents through a Storage capability.
type SessionService struct {
	storage Storage
}

func NewSessionService(storage Storage) (*SessionService, error) {
	if storage == nil {
		return nil, errors.New("new session service: storage is required")
	}
	return &SessionService{storage: storage}, nil
}

// Get returns the session document. Returns ErrNotFound if none was stored.
func (s *SessionService) Get(ctx context.Context, id Identity, key SessionKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	path, err := key.Path(id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	r, err := s.storage.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(io.LimitReader(r, MaxSessionBytes+1))
	if err != nil {
		return nil, fmt.Errorf("get session %s: read: %w", path, err)
	}
	if len(data) > MaxSessionBytes {
		return nil, fmt.Errorf("get session %s: %w: stored document exceeds %d bytes", path, ErrInternal, MaxSessionBytes)
	}
	return data, nil
}

// Put stores data as the session document. data must be valid JSON.
func (s *SessionService) Put(ctx context.Context, id Identity, key SessionKey, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}

	path, err := key.Path(id)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}

	if len(data) > MaxSessionBytes {
		return fmt.Errorf("put session %s: %w: document exceeds %d bytes", path, ErrInvalidInput, MaxSessionBytes)
	}
	if !json.Valid(data) {
		return fmt.Errorf("put session %s: %w: body is not valid JSON", path, ErrInvalidInput)
	}

	if err := s.storage.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("put session %s: %w", path, err)
	}
	return nil
}

// Delete removes the session document. Returns ErrNotFound if none was stored.
func (s *SessionService) Delete(ctx context.Context, id Identity, key SessionKey) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	path, err := key.Path(id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.storage.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete session %s: %w", path, err)
	}
	return nil
}
