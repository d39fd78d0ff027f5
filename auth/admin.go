package auth

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials returns a token source running the client credentials
// grant against the issuer token endpoint. Tokens are fetched on first use
// and refreshed before expiry. ctx must outlive the source; it may carry an
// oauth2.HTTPClient.
func ClientCredentials(ctx context.Context, issuer string, creds Credentials) oauth2.TokenSource {
	cfg := clientcredentials.Config{
		ClientID:     creds.ID,
		ClientSecret: creds.Secret,
		TokenURL:     TokenURL(issuer),
		Scopes:       strings.Fields(creds.Scope),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cfg.TokenSource(ctx)
}

// StaticToken returns a source always yielding the bearer token given.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
