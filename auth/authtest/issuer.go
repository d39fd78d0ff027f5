// Package authtest provides an in-process OpenID Connect issuer for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
)

const keyID = "authtest"

// Issuer serves a JWKS and a client credentials token endpoint under a
// Keycloak style realm path, and mints tokens signed with its key.
type Issuer struct {
	URL string

	srv       *httptest.Server
	key       *rsa.PrivateKey
	signer    jose.Signer
	down      atomic.Bool
	keyHits   atomic.Int64
	tokenHits atomic.Int64
}

// NewIssuer starts an issuer stopped at the end of the test.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	iss := &Issuer{key: key, signer: signer}
	iss.srv = httptest.NewServer(http.HandlerFunc(iss.serve))
	iss.URL = iss.srv.URL + "/auth/realms/youwol"
	t.Cleanup(iss.srv.Close)
	return iss
}

// Host returns the host:port of the issuer.
func (i *Issuer) Host() string {
	return strings.TrimPrefix(i.srv.URL, "http://")
}

// Client returns an HTTP client for the issuer.
func (i *Issuer) Client() *http.Client {
	return i.srv.Client()
}

// SetDown makes every endpoint answer 503 while down is true.
func (i *Issuer) SetDown(down bool) {
	i.down.Store(down)
}

// KeyRequests returns the number of JWKS requests served.
func (i *Issuer) KeyRequests() int64 {
	return i.keyHits.Load()
}

// TokenRequests returns the number of token requests served.
func (i *Issuer) TokenRequests() int64 {
	return i.tokenHits.Load()
}

// Token mints a token for sub expiring after ttl. extra claims are merged in.
func (i *Issuer) Token(t testing.TB, sub string, ttl time.Duration, extra map[string]any) string {
	t.Helper()
	now := time.Now()
	claims := map[string]any{
		"iss": i.URL,
		"sub": sub,
		"aud": "cdn-sessions-storage",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}
	return i.sign(t, claims)
}

// ForeignToken mints a token with a key the issuer does not publish.
func (i *Issuer) ForeignToken(t testing.TB, sub string) string {
	t.Helper()
	other := NewIssuerKeyOnly(t)
	now := time.Now()
	return other.sign(t, map[string]any{
		"iss": i.URL,
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
}

// NewIssuerKeyOnly returns an issuer able to sign but serving nothing.
func NewIssuerKeyOnly(t testing.TB) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: key, KeyID: keyID}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return &Issuer{key: key, signer: signer}
}

func (i *Issuer) sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	jws, err := i.signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	token, err := jws.CompactSerialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return token
}

func (i *Issuer) serve(w http.ResponseWriter, r *http.Request) {
	if i.down.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	switch r.URL.Path {
	case "/auth/realms/youwol/protocol/openid-connect/certs":
		i.keyHits.Add(1)
		set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key:       &i.key.PublicKey,
			KeyID:     keyID,
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	case "/auth/realms/youwol/protocol/openid-connect/token":
		i.tokenHits.Add(1)
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") == "" || r.PostForm.Get("client_secret") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "admin-" + r.PostForm.Get("client_id"),
			"token_type":   "Bearer",
			"expires_in":   300,
		})
	default:
		http.NotFound(w, r)
	}
}
