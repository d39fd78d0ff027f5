package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
	"github.com/youwol/cdn-sessions-storage/cache"
	"github.com/youwol/cdn-sessions-storage/config"
	"github.com/youwol/cdn-sessions-storage/filesystem"
)

func validConfiguration(t *testing.T) *config.ServiceConfiguration {
	t.Helper()
	store, err := filesystem.Open(t.TempDir(), sessions.Namespace)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &config.ServiceConfiguration{
		Environment: config.Local,
		Server:      config.ServerOptions{Port: 2100},
		Storage:     store,
		Cache:       cache.NewLocal(sessions.CachePrefix, 8, time.Minute),
		Auth:        auth.LocalPassthrough(sessions.Identity{Subject: "local-user"}),
		Unprotected: config.NewPathPolicy(),
		LogSink:     config.LogSinkConsole,
		Backends:    config.Backends{StorageKind: config.StorageFilesystem},
	}
}

func TestServiceConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.ServiceConfiguration)
	}{
		{name: "no environment", mutate: func(c *config.ServiceConfiguration) { c.Environment = "" }},
		{name: "no port", mutate: func(c *config.ServiceConfiguration) { c.Server.Port = 0 }},
		{name: "no storage", mutate: func(c *config.ServiceConfiguration) { c.Storage = nil }},
		{name: "no cache", mutate: func(c *config.ServiceConfiguration) { c.Cache = nil }},
		{name: "unknown log sink", mutate: func(c *config.ServiceConfiguration) { c.LogSink = "syslog" }},
		{name: "no auth", mutate: func(c *config.ServiceConfiguration) { c.Auth = auth.Descriptor{} }},
		{
			name: "remote oidc without secret",
			mutate: func(c *config.ServiceConfiguration) {
				c.Auth = auth.RemoteOIDC("https://auth/realms/youwol", auth.Credentials{ID: "id"})
			},
		},
		{
			name:   "networked storage without admin credentials",
			mutate: func(c *config.ServiceConfiguration) { c.Backends.StorageKind = config.StorageRemote },
		},
		{
			name:   "healthz protected",
			mutate: func(c *config.ServiceConfiguration) { c.Unprotected = config.PathPolicy{} },
		},
	}

	require.NoError(t, validConfiguration(t).Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfiguration(t)
			tt.mutate(c)

			err := c.Validate()

			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestServiceConfiguration_ViewIsRedacted(t *testing.T) {
	r, _ := newResolver(t, prodVars())
	cfg, err := r.Resolve(context.Background(), "prod")
	require.NoError(t, err)

	out, err := yaml.Marshal(cfg.View())
	require.NoError(t, err)

	assert.NotContains(t, string(out), "prod-secret")
	assert.Contains(t, string(out), "********")
	assert.Contains(t, string(out), "environment: prod")
	assert.Contains(t, string(out), "cache_prefix: jwt_cache")

	var view config.View
	require.NoError(t, yaml.Unmarshal(out, &view))
	assert.Equal(t, []string{"healthz"}, view.Unprotected)
	assert.Equal(t, []string{"context", "auth"}, view.Middleware)
	assert.Equal(t, "prod-secret", cfg.Auth.Client.Secret, "the configuration itself is untouched")
}
