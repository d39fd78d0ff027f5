package auth

import (
	"errors"
	"fmt"
	"strings"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// Kind tags the authentication scheme of a Descriptor.
type Kind string

const (
	// KindRemoteOIDC validates bearer tokens against an OpenID Connect issuer.
	KindRemoteOIDC Kind = "remote-oidc"
	// KindLocalPassthrough attaches a fixed local identity to every request.
	KindLocalPassthrough Kind = "local-passthrough"
)

// Credentials are OAuth2 client credentials.
type Credentials struct {
	ID     string `json:"clientId" yaml:"client_id"`
	Secret string `json:"clientSecret" yaml:"client_secret"`
	Scope  string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Redacted returns a copy with the secret masked.
func (c Credentials) Redacted() Credentials {
	if c.Secret != "" {
		c.Secret = "********"
	}
	return c
}

// Descriptor carries everything needed to build the authentication layer.
type Descriptor struct {
	Kind Kind `yaml:"kind"`

	// remote-oidc
	Issuer       string      `yaml:"issuer,omitempty"`
	Client       Credentials `yaml:"client,omitempty"`
	JWTProviders []string    `yaml:"jwt_providers,omitempty"`

	// local-passthrough
	LocalIdentity sessions.Identity `yaml:"local_identity,omitempty"`
}

// RemoteOIDC describes token validation against issuer.
func RemoteOIDC(issuer string, client Credentials, providers ...string) Descriptor {
	if len(providers) == 0 {
		providers = []string{ProviderBearer}
	}
	return Descriptor{
		Kind:         KindRemoteOIDC,
		Issuer:       strings.TrimSuffix(issuer, "/"),
		Client:       client,
		JWTProviders: providers,
	}
}

// LocalPassthrough describes a chain trusting every caller as id.
func LocalPassthrough(id sessions.Identity) Descriptor {
	return Descriptor{Kind: KindLocalPassthrough, LocalIdentity: id}
}

// Validate checks the descriptor is complete for its kind.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case KindRemoteOIDC:
		var missing []string
		if d.Issuer == "" {
			missing = append(missing, "issuer")
		}
		if d.Client.ID == "" {
			missing = append(missing, "client id")
		}
		if d.Client.Secret == "" {
			missing = append(missing, "client secret")
		}
		if len(missing) > 0 {
			return fmt.Errorf("remote-oidc descriptor: missing %s", strings.Join(missing, ", "))
		}
		for _, p := range d.JWTProviders {
			if _, err := NewTokenProvider(p); err != nil {
				return fmt.Errorf("remote-oidc descriptor: %w", err)
			}
		}
		return nil
	case KindLocalPassthrough:
		if d.LocalIdentity.IsZero() {
			return errors.New("local-passthrough descriptor: local identity has no subject")
		}
		return nil
	default:
		return fmt.Errorf("unknown auth kind %q", d.Kind)
	}
}

// Redacted returns a copy safe to print.
func (d Descriptor) Redacted() Descriptor {
	d.Client = d.Client.Redacted()
	return d
}

// JWKSURL returns the key set endpoint of a Keycloak realm issuer.
func JWKSURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/protocol/openid-connect/certs"
}

// TokenURL returns the token endpoint of a Keycloak realm issuer.
func TokenURL(issuer string) string {
	return strings.TrimSuffix(issuer, "/") + "/protocol/openid-connect/token"
}

// RealmIssuer returns the issuer of the youwol realm served by host.
func RealmIssuer(host string) string {
	return "https://" + host + "/auth/realms/youwol"
}
