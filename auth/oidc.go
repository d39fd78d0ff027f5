package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// Claims is the outcome of a successful token validation.
type Claims struct {
	Identity sessions.Identity
	Expiry   time.Time
}

// Validator validates raw tokens.
// Errors wrap ErrCredentialInvalid or ErrIssuerUnreachable.
type Validator interface {
	Validate(ctx context.Context, token string) (Claims, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, token string) (Claims, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}

// OIDCValidator checks token signatures against the issuer key set and then
// the standard claims. Keys are fetched lazily and cached by go-oidc.
type OIDCValidator struct {
	issuer   string
	keySet   *oidc.RemoteKeySet
	verifier *oidc.IDTokenVerifier
	failures *atomic.Int64
}

// NewOIDCValidator creates a validator for issuer. No request is made until
// the first validation. A nil client uses a client with a 10s timeout.
func NewOIDCValidator(issuer string, client *http.Client) *OIDCValidator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	failures := new(atomic.Int64)
	checked := *client
	checked.Transport = statusTransport{next: client.Transport, failures: failures}

	ctx := oidc.ClientContext(context.Background(), &checked)
	keySet := oidc.NewRemoteKeySet(ctx, JWKSURL(issuer))
	verifier := oidc.NewVerifier(issuer, keySet, &oidc.Config{SkipClientIDCheck: true})

	return &OIDCValidator{issuer: issuer, keySet: keySet, verifier: verifier, failures: failures}
}

// Issuer returns the expected token issuer.
func (v *OIDCValidator) Issuer() string {
	return v.issuer
}

func (v *OIDCValidator) Validate(ctx context.Context, token string) (Claims, error) {
	before := v.failures.Load()
	if _, err := v.keySet.VerifySignature(ctx, token); err != nil {
		// a key fetch failing during this call means the issuer is down
		if unreachable(err) || v.failures.Load() != before {
			return Claims{}, fmt.Errorf("%w: %w", ErrIssuerUnreachable, err)
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrCredentialInvalid, err)
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		if unreachable(err) {
			return Claims{}, fmt.Errorf("%w: %w", ErrIssuerUnreachable, err)
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrCredentialInvalid, err)
	}

	var id sessions.Identity
	if err := idToken.Claims(&id); err != nil {
		return Claims{}, fmt.Errorf("%w: decode claims: %w", ErrCredentialInvalid, err)
	}
	id.Subject = idToken.Subject
	if id.IsZero() {
		return Claims{}, fmt.Errorf("%w: token has no subject", ErrCredentialInvalid)
	}

	return Claims{Identity: id, Expiry: idToken.Expiry}, nil
}

func unreachable(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded)
}

// statusTransport turns 5xx responses of the key set endpoint into transport
// errors, so that they surface as *url.Error like connection failures.
type statusTransport struct {
	next     http.RoundTripper
	failures *atomic.Int64
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	if err != nil {
		t.failures.Add(1)
		return nil, err
	}
	if resp.StatusCode >= 500 {
		t.failures.Add(1)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("issuer responded %s", resp.Status)
	}
	return resp, nil
}
