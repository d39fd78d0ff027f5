package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youwol/cdn-sessions-storage/config"
)

func TestRequireEnv_AllPresent(t *testing.T) {
	lookup := config.MapLookup(map[string]string{"A": "1", "B": "2", "C": "3"})

	vars, err := config.RequireEnv(lookup, "A", "B")

	require.NoError(t, err)
	assert.Equal(t, "1", vars.Get("A"))
	assert.Equal(t, "2", vars.Get("B"))
	assert.Empty(t, vars.Get("C"), "only required names are read")
}

func TestRequireEnv_ReportsEveryMissingName(t *testing.T) {
	lookup := config.MapLookup(map[string]string{"B": "2", "D": ""})

	_, err := config.RequireEnv(lookup, "A", "B", "C", "D")

	var missing *config.MissingConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"A", "C", "D"}, missing.Names)
	assert.True(t, errors.Is(err, config.ErrConfiguration))
	assert.Contains(t, err.Error(), "A, C, D")
}

func TestRequireEnv_NothingRequired(t *testing.T) {
	vars, err := config.RequireEnv(config.MapLookup(nil))

	require.NoError(t, err)
	assert.Empty(t, vars)
}

func TestOSLookup(t *testing.T) {
	t.Setenv("CDN_SESSIONS_TEST_VAR", "x")

	vars, err := config.RequireEnv(config.OSLookup(), "CDN_SESSIONS_TEST_VAR")

	require.NoError(t, err)
	assert.Equal(t, "x", vars.Get("CDN_SESSIONS_TEST_VAR"))
}

func TestParseEnvironment(t *testing.T) {
	for _, env := range config.Environments() {
		got, err := config.ParseEnvironment(string(env))
		require.NoError(t, err)
		assert.Equal(t, env, got)
	}

	_, err := config.ParseEnvironment("staging")

	var unknown *config.UnknownEnvironmentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "staging", unknown.Key)
	assert.Equal(t, config.Environments(), unknown.Valid)
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.Contains(t, err.Error(), `"staging"`)
}

func TestRequired(t *testing.T) {
	assert.Empty(t, config.Required(config.Local))
	assert.Empty(t, config.Required(config.RemoteClients))
	assert.Empty(t, config.Required(config.Hybrid))
	assert.Equal(t, []string{"AUTH_HOST", "AUTH_CLIENT_ID", "AUTH_CLIENT_SECRET", "AUTH_CLIENT_SCOPE"}, config.Required(config.Tricot))
	assert.Equal(t, []string{"OPENID_BASE_URL", "OPENID_CLIENT_ID", "OPENID_CLIENT_SECRET", "REDIS_HOST"}, config.Required(config.Prod))
}

func TestPathPolicy(t *testing.T) {
	p := config.NewPathPolicy("openapi-docs", "healthz", "")

	assert.Equal(t, []string{"healthz", "openapi-docs"}, p.Segments())
	assert.True(t, p.Unprotected("/healthz"))
	assert.True(t, p.Unprotected("/applications/healthz"))
	assert.False(t, p.Unprotected("/applications/healthz/"), "a trailing slash ends in an empty segment")
	assert.True(t, p.Unprotected("/api/cdn-sessions-storage/openapi-docs"))
	assert.False(t, p.Unprotected("/applications/explorer/layout"))
	assert.False(t, p.Unprotected("/healthz/layout"))

	assert.True(t, config.NewPathPolicy().Unprotected("/x/healthz"), "healthz is always exempt")
}
