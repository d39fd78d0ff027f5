package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Provider names accepted in Descriptor.JWTProviders.
const (
	ProviderBearer = "bearer"
	ProviderCookie = "cookie"
)

// CookieName is the cookie read by the cookie provider.
const CookieName = "access_token"

// TokenProvider extracts a raw token from a request.
type TokenProvider interface {
	Token(r *http.Request) (string, bool)
}

// BearerProvider reads the Authorization header.
type BearerProvider struct{}

func (BearerProvider) Token(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CookieProvider reads a cookie.
type CookieProvider struct {
	Name string
}

func (p CookieProvider) Token(r *http.Request) (string, bool) {
	c, err := r.Cookie(p.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// NewTokenProvider returns the provider registered under name.
func NewTokenProvider(name string) (TokenProvider, error) {
	switch name {
	case ProviderBearer:
		return BearerProvider{}, nil
	case ProviderCookie:
		return CookieProvider{Name: CookieName}, nil
	default:
		return nil, fmt.Errorf("unknown jwt provider %q", name)
	}
}

// Providers returns the providers named, in order. An empty list yields the
// bearer provider alone.
func Providers(names []string) ([]TokenProvider, error) {
	if len(names) == 0 {
		return []TokenProvider{BearerProvider{}}, nil
	}
	out := make([]TokenProvider, 0, len(names))
	for _, n := range names {
		p, err := NewTokenProvider(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Extract returns the first token found by providers.
func Extract(r *http.Request, providers []TokenProvider) (string, error) {
	for _, p := range providers {
		if token, ok := p.Token(r); ok {
			return token, nil
		}
	}
	return "", ErrNoCredentials
}
