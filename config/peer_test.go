package config_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youwol/cdn-sessions-storage/config"
)

const peerJSON = `{
  "k8sInstance": {"host": "gc.platform.youwol.com", "openIdConnect": {"host": "gc.auth.youwol.com"}},
  "portsBook": {"cdn-sessions-storage": 2103, "assets-backend": 2104},
  "pathsBook": {"databases": "/home/dev/youwol/databases"},
  "tokensCache": [
    {"value": "other-token", "dependencies": {"host": "other.youwol.com"}},
    {"value": "peer-token", "dependencies": {"host": "gc.platform.youwol.com"}}
  ]
}`

func peerServer(t *testing.T, handler http.HandlerFunc) *config.HTTPPeer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &config.HTTPPeer{
		URL:     srv.URL + "/admin/environment/configuration",
		Timeout: time.Second,
		Client:  srv.Client(),
	}
}

func TestNewHTTPPeer(t *testing.T) {
	p := config.NewHTTPPeer(2000, 0, nil)

	assert.Equal(t, "http://localhost:2000/admin/environment/configuration", p.URL)
	assert.Equal(t, config.DefaultPeerTimeout, p.Timeout)
	assert.Equal(t, http.DefaultClient, p.Client)
}

func TestHTTPPeer_Environment(t *testing.T) {
	p := peerServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/environment/configuration", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(peerJSON))
	})

	env, err := p.Environment(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gc.platform.youwol.com", env.K8sInstance.Host)
	assert.Equal(t, "gc.auth.youwol.com", env.K8sInstance.OpenIDConnect.Host)
	assert.Equal(t, "/home/dev/youwol/databases", env.PathsBook.Databases)

	token, err := env.TokenFor("gc.platform.youwol.com")
	require.NoError(t, err)
	assert.Equal(t, "peer-token", token)

	_, err = env.TokenFor("unknown.youwol.com")
	assert.Error(t, err)

	port, err := env.Port("cdn-sessions-storage")
	require.NoError(t, err)
	assert.Equal(t, 2103, port)

	_, err = env.Port("stories-backend")
	assert.Error(t, err)
}

func TestHTTPPeer_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("not json")) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := peerServer(t, tt.handler)

			_, err := p.Environment(context.Background())

			var unavailable *config.PeerUnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Equal(t, p.URL, unavailable.URL)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestHTTPPeer_Timeout(t *testing.T) {
	var calls atomic.Int32
	p := peerServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	p.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := p.Environment(context.Background())

	var unavailable *config.PeerUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), calls.Load(), "no retry")
}
