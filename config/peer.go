package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPeerTimeout bounds the single call made to a py-youwol peer.
const DefaultPeerTimeout = 5 * time.Second

// PeerEnvironment is the subset of the py-youwol environment configuration a
// hybrid service needs.
type PeerEnvironment struct {
	K8sInstance K8sInstance    `json:"k8sInstance"`
	PortsBook   map[string]int `json:"portsBook"`
	PathsBook   PathsBook      `json:"pathsBook"`
	TokensCache []CachedToken  `json:"tokensCache"`
}

// K8sInstance describes the cluster the peer is connected to.
type K8sInstance struct {
	Host          string        `json:"host"`
	OpenIDConnect OpenIDConnect `json:"openIdConnect"`
}

type OpenIDConnect struct {
	Host string `json:"host"`
}

type PathsBook struct {
	Databases string `json:"databases"`
}

// CachedToken is an access token the peer obtained for a host.
type CachedToken struct {
	Value        string          `json:"value"`
	Dependencies TokenDependency `json:"dependencies"`
}

type TokenDependency struct {
	Host string `json:"host"`
}

// TokenFor returns the first cached token issued for host.
func (e *PeerEnvironment) TokenFor(host string) (string, error) {
	for _, t := range e.TokensCache {
		if t.Dependencies.Host == host && t.Value != "" {
			return t.Value, nil
		}
	}
	return "", fmt.Errorf("no cached token for %s", host)
}

// Port returns the port the peer assigned to service.
func (e *PeerEnvironment) Port(service string) (int, error) {
	port, ok := e.PortsBook[service]
	if !ok || port <= 0 {
		return 0, fmt.Errorf("no port assigned to %s", service)
	}
	return port, nil
}

// PeerLookup fetches the environment of a py-youwol peer.
type PeerLookup interface {
	Environment(ctx context.Context) (*PeerEnvironment, error)
}

// HTTPPeer queries a py-youwol peer listening on localhost.
type HTTPPeer struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPPeer returns a lookup of the peer listening on port. A nil client
// uses http.DefaultClient.
func NewHTTPPeer(port int, timeout time.Duration, client *http.Client) *HTTPPeer {
	if timeout <= 0 {
		timeout = DefaultPeerTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPeer{
		URL:     fmt.Sprintf("http://localhost:%d/admin/environment/configuration", port),
		Timeout: timeout,
		Client:  client,
	}
}

// Environment performs one GET, without retry. Every failure is a
// *PeerUnavailableError.
func (p *HTTPPeer) Environment(ctx context.Context) (*PeerEnvironment, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, &PeerUnavailableError{URL: p.URL, Err: err}
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &PeerUnavailableError{URL: p.URL, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &PeerUnavailableError{URL: p.URL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var env PeerEnvironment
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &PeerUnavailableError{URL: p.URL, Err: fmt.Errorf("decode environment: %w", err)}
	}
	return &env, nil
}
