package bucket_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/bucket"
)

// fakeStorage is an in-memory storage service recording the requests it sees.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	buckets map[string]bool
	auth    []string
	owners  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects: map[string]string{},
		types:   map[string]string{},
		buckets: map[string]bool{},
	}
}

func (f *fakeStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.auth = append(f.auth, r.Header.Get("Authorization"))

	switch {
	case r.URL.Path == "/healthz":
		w.WriteHeader(http.StatusOK)
		return
	case r.URL.Path == "/buckets" && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		if f.buckets[string(body)] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.buckets[string(body)] = true
		w.WriteHeader(http.StatusCreated)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/cdn-sessions-storage/objects/")
	if key == r.URL.Path {
		http.Error(w, "unknown bucket", http.StatusNotFound)
		return
	}
	f.owners = append(f.owners, r.URL.Query().Get("owner"))

	switch r.Method {
	case http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = string(body)
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		v, ok := f.objects[key]
		if !ok {
			http.Error(w, "no such object", http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, v)
	case http.MethodDelete:
		if _, ok := f.objects[key]; !ok {
			http.Error(w, "no such object", http.StatusNotFound)
			return
		}
		delete(f.objects, key)
		w.WriteHeader(http.StatusOK)
	}
}

func newClient(t *testing.T) (*bucket.Client, *fakeStorage) {
	t.Helper()
	fake := newFakeStorage()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "admin-token", TokenType: "Bearer"})
	return bucket.NewWithTokenSource(context.Background(), srv.URL+"/", sessions.Namespace, ts), fake
}

func TestClient_PutGet(t *testing.T) {
	c, fake := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "alice/@youwol/explorer/layout.json", strings.NewReader(`{"a":1}`), "application/json"))

	r, err := c.Get(ctx, "alice/@youwol/explorer/layout.json")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	assert.Equal(t, "application/json", fake.types["alice/@youwol/explorer/layout.json"])
	for _, h := range fake.auth {
		assert.Equal(t, "Bearer admin-token", h)
	}
	for _, o := range fake.owners {
		assert.Equal(t, sessions.DefaultOwner, o)
	}
}

func TestClient_GetNotFound(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Get(context.Background(), "missing.json")
	assert.ErrorIs(t, err, sessions.ErrNotFound)

	var statusErr *bucket.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "no such object", statusErr.Message)
}

func TestClient_Delete(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "d.json", strings.NewReader(`{}`), ""))
	require.NoError(t, c.Delete(ctx, "d.json"))
	assert.ErrorIs(t, c.Delete(ctx, "d.json"), sessions.ErrNotFound)
}

func TestClient_Exists(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	ok, err := c.Exists(ctx, "e.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "e.json", strings.NewReader(`{}`), ""))

	ok, err = c.Exists(ctx, "e.json")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_InvalidPath(t *testing.T) {
	c, fake := newClient(t)

	_, err := c.Get(context.Background(), "../other-bucket/x")
	assert.ErrorIs(t, err, sessions.ErrInvalidInput)
	assert.Empty(t, fake.auth, "no request sent")
}

func TestClient_InitIsIdempotent(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Init(ctx))
	require.NoError(t, c.Init(ctx))
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := bucket.New(srv.URL, sessions.Namespace, srv.Client())

	assert.ErrorIs(t, c.Ping(context.Background()), sessions.ErrInternal)
	assert.ErrorIs(t, c.Init(context.Background()), sessions.ErrInternal)
}

func TestClient_Bucket(t *testing.T) {
	c := bucket.New("http://storage/api/", sessions.Namespace, nil)

	assert.Equal(t, sessions.Namespace, c.Bucket())
	assert.Equal(t, "http://storage/api", c.BaseURL())
}

func TestClient_CredentialsRejected(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer srv.Close()

			c := bucket.New(srv.URL, sessions.Namespace, srv.Client())

			_, err := c.Get(context.Background(), "alice/explorer/layout.json")
			assert.ErrorIs(t, err, sessions.ErrUpstreamRejected)
			assert.NotErrorIs(t, err, sessions.ErrUnauthorized)
		})
	}
}
