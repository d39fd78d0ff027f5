package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
	"github.com/youwol/cdn-sessions-storage/auth/authtest"
	"github.com/youwol/cdn-sessions-storage/cache"
	sessionshttp "github.com/youwol/cdn-sessions-storage/http"
)

func layerNames(c sessionshttp.Chain) []string {
	var names []string
	for _, l := range c.Layers() {
		names = append(names, l.Name)
	}
	return names
}

func TestAssemble_TwoLayers(t *testing.T) {
	descriptors := map[string]auth.Descriptor{
		"remote": auth.RemoteOIDC("https://auth/realms/youwol", auth.Credentials{ID: "id", Secret: "s"}),
		"local":  auth.LocalPassthrough(localUser),
	}

	for name, desc := range descriptors {
		t.Run(name, func(t *testing.T) {
			chain, err := sessionshttp.Assemble(desc, cache.NewLocal("p_", 8, time.Minute), healthz)
			require.NoError(t, err)
			assert.Equal(t, []string{sessionshttp.LayerContext, sessionshttp.LayerAuth}, layerNames(chain))
			assert.False(t, chain.IsZero())
		})
	}
}

func TestAssemble_Errors(t *testing.T) {
	_, err := sessionshttp.Assemble(auth.RemoteOIDC("", auth.Credentials{}), nil, healthz)
	assert.Error(t, err)

	_, err = sessionshttp.Assemble(auth.LocalPassthrough(localUser), nil, nil)
	assert.Error(t, err)

	_, err = sessionshttp.Assemble(auth.Descriptor{Kind: "basic"}, nil, healthz)
	assert.Error(t, err)
}

func TestChain_ZeroPassesThrough(t *testing.T) {
	var chain sessionshttp.Chain
	assert.True(t, chain.IsZero())

	rec := serve(chain.Handler(identityEcho(t)), "/a/b", "")
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestAssemble_RemoteEndToEnd(t *testing.T) {
	iss := authtest.NewIssuer(t)
	c := cache.NewLocal(sessions.CachePrefix, 16, time.Hour)

	chain, err := sessionshttp.Assemble(
		auth.RemoteOIDC(iss.URL, auth.Credentials{ID: "id", Secret: "s"}),
		c, healthz,
		sessionshttp.WithHTTPClient(iss.Client()),
		sessionshttp.WithValidationRate(100, 10),
	)
	require.NoError(t, err)
	h := chain.Handler(identityEcho(t))

	valid := iss.Token(t, "alice-id", time.Hour, nil)
	expired := iss.Token(t, "alice-id", -time.Minute, nil)

	rec := serve(h, "/applications/explorer/layout", valid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice-id", rec.Body.String())

	rec = serve(h, "/applications/explorer/layout", expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, sessionshttp.ReasonCredentialInvalid, errorCode(t, rec))

	// the valid token is cached, so an outage does not affect it
	iss.SetDown(true)
	rec = serve(h, "/applications/explorer/layout", valid)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, "/applications/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssemble_RemoteIssuerDown(t *testing.T) {
	iss := authtest.NewIssuer(t)
	chain, err := sessionshttp.Assemble(
		auth.RemoteOIDC(iss.URL, auth.Credentials{ID: "id", Secret: "s"}),
		nil, healthz,
		sessionshttp.WithHTTPClient(iss.Client()),
	)
	require.NoError(t, err)
	h := chain.Handler(identityEcho(t))

	iss.SetDown(true)
	rec := serve(h, "/applications/explorer/layout", iss.Token(t, "alice-id", time.Hour, nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, sessionshttp.ReasonIssuerUnreachable, errorCode(t, rec))
}
