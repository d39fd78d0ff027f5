package config

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"golang.org/x/oauth2"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
	"github.com/youwol/cdn-sessions-storage/bucket"
	"github.com/youwol/cdn-sessions-storage/cache"
	"github.com/youwol/cdn-sessions-storage/filesystem"
)

// In-cluster addresses.
const (
	ClusterStorageURL = "http://storage/api"
	ProdCachePrefix   = "jwt_cache"
)

// Environment variables read by the gate.
const (
	EnvAuthHost           = "AUTH_HOST"
	EnvAuthClientID       = "AUTH_CLIENT_ID"
	EnvAuthClientSecret   = "AUTH_CLIENT_SECRET"
	EnvAuthClientScope    = "AUTH_CLIENT_SCOPE"
	EnvOpenIDBaseURL      = "OPENID_BASE_URL"
	EnvOpenIDClientID     = "OPENID_CLIENT_ID"
	EnvOpenIDClientSecret = "OPENID_CLIENT_SECRET"
	EnvRedisHost          = "REDIS_HOST"
)

// Storage, cache and admin credential kinds reported in Backends.
const (
	StorageFilesystem = "filesystem"
	StorageRemote     = "remote"

	CacheLocal = "local"
	CacheRedis = "redis"

	AdminNone        = "none"
	AdminEnvironment = "environment"
	AdminSecretsFile = "secrets-file"
	AdminPeer        = "peer"
)

// Backends describes where the selected capabilities point.
type Backends struct {
	StorageKind string `yaml:"storage_kind"`
	StorageURL  string `yaml:"storage_url"`
	Bucket      string `yaml:"bucket"`
	CacheKind   string `yaml:"cache_kind"`
	CacheHost   string `yaml:"cache_host,omitempty"`
	CachePrefix string `yaml:"cache_prefix"`
	AdminSource string `yaml:"admin_source"`
}

// Networked reports whether the storage is reached over the network.
func (b Backends) Networked() bool {
	return b.StorageKind == StorageRemote
}

// Inputs feed backend selection.
type Inputs struct {
	Vars     Vars
	Settings *Settings
	// Peer is consulted by hybrid only.
	Peer PeerLookup
	// HTTPClient reaches the issuer token endpoint. Nil uses the default.
	HTTPClient *http.Client
}

// Selection is the outcome of backend selection for one environment.
type Selection struct {
	Server           ServerOptions
	Storage          sessions.Storage
	Cache            sessions.Cache
	Auth             auth.Descriptor
	AdminCredentials oauth2.TokenSource
	Backends         Backends
}

type variant struct {
	required []string
	server   ServerOptions
	sink     LogSink
	exempt   []string
	backends func(ctx context.Context, in Inputs, sel *Selection) error
}

func variantOf(env Environment) (variant, bool) {
	switch env {
	case Local:
		return variant{
			server:   ServerOptions{Port: 2100},
			sink:     LogSinkConsole,
			exempt:   []string{SegmentHealth, SegmentDocs},
			backends: selectLocal,
		}, true
	case Tricot:
		return variant{
			required: []string{EnvAuthHost, EnvAuthClientID, EnvAuthClientSecret, EnvAuthClientScope},
			server:   ServerOptions{Port: 8080, RootPath: "/applications"},
			sink:     LogSinkStructured,
			exempt:   []string{SegmentHealth, SegmentDocs},
			backends: selectTricot,
		}, true
	case RemoteClients:
		return variant{
			server:   ServerOptions{Port: 1000, RootPath: "/applications"},
			sink:     LogSinkStructured,
			exempt:   []string{SegmentHealth, SegmentDocs},
			backends: selectRemoteClients,
		}, true
	case Hybrid:
		return variant{
			sink:     LogSinkConsole,
			exempt:   []string{SegmentHealth, SegmentDocs},
			backends: selectHybrid,
		}, true
	case Prod:
		return variant{
			required: []string{EnvOpenIDBaseURL, EnvOpenIDClientID, EnvOpenIDClientSecret, EnvRedisHost},
			server:   ServerOptions{Port: 8080, RootPath: "/api/cdn-sessions-storage"},
			sink:     LogSinkStructured,
			exempt:   []string{SegmentHealth},
			backends: selectProd,
		}, true
	}
	return variant{}, false
}

// Required returns the environment variables env requires.
func Required(env Environment) []string {
	v, _ := variantOf(env)
	return append([]string(nil), v.required...)
}

// LogSinkOf returns the log sink of env.
func LogSinkOf(env Environment) LogSink {
	v, ok := variantOf(env)
	if !ok {
		return LogSinkConsole
	}
	return v.sink
}

// Select builds the capabilities of env. It performs no I/O except for the
// hybrid peer lookup and the creation of the local storage directory.
func Select(ctx context.Context, env Environment, in Inputs) (*Selection, error) {
	v, ok := variantOf(env)
	if !ok {
		return nil, &UnknownEnvironmentError{Key: string(env), Valid: Environments()}
	}
	if in.Settings == nil {
		in.Settings = DefaultSettings()
	}

	sel := &Selection{Server: v.server}
	if err := v.backends(ctx, in, sel); err != nil {
		return nil, fmt.Errorf("select %s backends: %w", env, err)
	}
	return sel, nil
}

func tokenContext(ctx context.Context, client *http.Client) context.Context {
	ctx = context.WithoutCancel(ctx)
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	return ctx
}

func remoteStorage(ctx context.Context, in Inputs, baseURL string, admin oauth2.TokenSource, sel *Selection) {
	sel.Storage = bucket.NewWithTokenSource(tokenContext(ctx, in.HTTPClient), baseURL, sessions.Namespace, admin)
	sel.AdminCredentials = admin
	sel.Backends.StorageKind = StorageRemote
	sel.Backends.StorageURL = baseURL
	sel.Backends.Bucket = sessions.Namespace
}

func redisCache(host, prefix string, sel *Selection) {
	sel.Cache = cache.DialRedis(host, prefix)
	sel.Backends.CacheKind = CacheRedis
	sel.Backends.CacheHost = cache.Addr(host)
	sel.Backends.CachePrefix = prefix
}

func selectLocal(_ context.Context, in Inputs, sel *Selection) error {
	dir := filepath.Join(in.Settings.Local.DatabasesPath, "storage")
	store, err := filesystem.Open(dir, sessions.Namespace)
	if err != nil {
		return err
	}

	sel.Storage = store
	sel.Cache = cache.NewLocal(sessions.CachePrefix, in.Settings.Cache.Size, in.Settings.Cache.MaxTTL)
	sel.Auth = auth.LocalPassthrough(sessions.Identity{
		Subject:  in.Settings.Local.User,
		Username: in.Settings.Local.User,
	})
	sel.Backends = Backends{
		StorageKind: StorageFilesystem,
		StorageURL:  store.Dir(),
		Bucket:      sessions.Namespace,
		CacheKind:   CacheLocal,
		CachePrefix: sessions.CachePrefix,
		AdminSource: AdminNone,
	}
	return nil
}

func selectTricot(ctx context.Context, in Inputs, sel *Selection) error {
	issuer := auth.RealmIssuer(in.Vars.Get(EnvAuthHost))
	creds := auth.Credentials{
		ID:     in.Vars.Get(EnvAuthClientID),
		Secret: in.Vars.Get(EnvAuthClientSecret),
		Scope:  in.Vars.Get(EnvAuthClientScope),
	}
	admin := auth.ClientCredentials(tokenContext(ctx, in.HTTPClient), issuer, creds)

	remoteStorage(ctx, in, ClusterStorageURL, admin, sel)
	redisCache(in.Settings.Cache.Host, sessions.CachePrefix, sel)
	sel.Auth = auth.RemoteOIDC(issuer, creds)
	sel.Backends.AdminSource = AdminEnvironment
	return nil
}

func selectRemoteClients(ctx context.Context, in Inputs, sel *Selection) error {
	path := filepath.Join(in.Settings.Platform.Path, auth.SecretsFile)
	secrets, err := auth.LoadClusterSecrets(path)
	if err != nil {
		return configError("%v", err)
	}
	cluster := in.Settings.Remote.ClusterHost
	creds, err := secrets.For(cluster)
	if err != nil {
		return configError("%v in %s", err, path)
	}

	issuer := auth.RealmIssuer(in.Settings.Remote.OpenIDHost)
	admin := auth.ClientCredentials(tokenContext(ctx, in.HTTPClient), issuer, creds)

	remoteStorage(ctx, in, "https://"+cluster+"/api/storage", admin, sel)
	redisCache(in.Settings.Cache.Host, sessions.CachePrefix, sel)
	sel.Auth = auth.RemoteOIDC(issuer, creds)
	sel.Backends.AdminSource = AdminSecretsFile
	return nil
}

// selectHybrid borrows the cluster session of the py-youwol peer. The peer's
// bearer token stands in for both the admin credentials and the client secret.
func selectHybrid(ctx context.Context, in Inputs, sel *Selection) error {
	if in.Peer == nil {
		return configError("hybrid requires a peer lookup")
	}
	env, err := in.Peer.Environment(ctx)
	if err != nil {
		return err
	}

	cluster := env.K8sInstance.Host
	openID := env.K8sInstance.OpenIDConnect.Host
	if cluster == "" || openID == "" {
		return &PeerUnavailableError{URL: peerURL(in.Peer), Err: fmt.Errorf("peer is not connected to a cluster")}
	}
	token, err := env.TokenFor(cluster)
	if err != nil {
		return &PeerUnavailableError{URL: peerURL(in.Peer), Err: err}
	}
	port, err := env.Port(sessions.Namespace)
	if err != nil {
		return &PeerUnavailableError{URL: peerURL(in.Peer), Err: err}
	}

	remoteStorage(ctx, in, "https://"+cluster+"/api/storage", auth.StaticToken(token), sel)
	redisCache(in.Settings.Cache.Host, sessions.CachePrefix, sel)
	sel.Auth = auth.RemoteOIDC(auth.RealmIssuer(openID), auth.Credentials{ID: sessions.Namespace, Secret: token})
	sel.Server.Port = port
	sel.Backends.AdminSource = AdminPeer
	return nil
}

func peerURL(p PeerLookup) string {
	if hp, ok := p.(*HTTPPeer); ok {
		return hp.URL
	}
	return "peer"
}

func selectProd(ctx context.Context, in Inputs, sel *Selection) error {
	issuer := in.Vars.Get(EnvOpenIDBaseURL)
	creds := auth.Credentials{
		ID:     in.Vars.Get(EnvOpenIDClientID),
		Secret: in.Vars.Get(EnvOpenIDClientSecret),
	}
	admin := auth.ClientCredentials(tokenContext(ctx, in.HTTPClient), issuer, creds)

	remoteStorage(ctx, in, ClusterStorageURL, admin, sel)
	redisCache(in.Vars.Get(EnvRedisHost), ProdCachePrefix, sel)
	sel.Auth = auth.RemoteOIDC(issuer, creds, auth.ProviderBearer, auth.ProviderCookie)
	sel.Backends.AdminSource = AdminEnvironment
	return nil
}
