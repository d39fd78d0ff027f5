package sessions_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	sessions "github.com/youwol/cdn-sessions-storage"
)

type SpyStorage struct {
	mock.Mock
}

func (s *SpyStorage) Bucket() string { return sessions.Namespace }

func (s *SpyStorage) Put(ctx context.Context, path string, content io.Reader, contentType string) error {
	data, _ := io.ReadAll(content)
	args := s.Called(ctx, path, string(data), contentType)
	return args.Error(0)
}

func (s *SpyStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	args := s.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (s *SpyStorage) Delete(ctx context.Context, path string) error {
	args := s.Called(ctx, path)
	return args.Error(0)
}

func (s *SpyStorage) Exists(ctx context.Context, path string) (bool, error) {
	args := s.Called(ctx, path)
	return args.Bool(0), args.Error(1)
}

func newService(t *testing.T) (*sessions.SessionService, *SpyStorage) {
	t.Helper()
	spy := new(SpyStorage)
	s, err := sessions.NewSessionService(spy)
	require.NoError(t, err, "new session service")
	return s, spy
}

var alice = sessions.Identity{Subject: "alice-id", Username: "alice"}

func TestNewSessionService_NilStorage(t *testing.T) {
	_, err := sessions.NewSessionService(nil)
	assert.Error(t, err)
}

func TestSessionKey_Path(t *testing.T) {
	tests := []struct {
		name    string
		id      sessions.Identity
		key     sessions.SessionKey
		want    string
		wantErr error
	}{
		{
			name: "plain package",
			id:   alice,
			key:  sessions.SessionKey{Package: "explorer", Name: "layout"},
			want: "alice-id/explorer/layout.json",
		},
		{
			name: "scoped package",
			id:   alice,
			key:  sessions.SessionKey{Package: "@youwol/explorer", Name: "layout"},
			want: "alice-id/@youwol/explorer/layout.json",
		},
		{
			name:    "scope without at sign",
			id:      alice,
			key:     sessions.SessionKey{Package: "youwol/explorer", Name: "layout"},
			wantErr: sessions.ErrInvalidInput,
		},
		{
			name:    "too many package segments",
			id:      alice,
			key:     sessions.SessionKey{Package: "@a/b/c", Name: "layout"},
			wantErr: sessions.ErrInvalidInput,
		},
		{
			name:    "traversal in name",
			id:      alice,
			key:     sessions.SessionKey{Package: "explorer", Name: ".."},
			wantErr: sessions.ErrInvalidInput,
		},
		{
			name:    "empty name",
			id:      alice,
			key:     sessions.SessionKey{Package: "explorer"},
			wantErr: sessions.ErrInvalidInput,
		},
		{
			name:    "anonymous caller",
			key:     sessions.SessionKey{Package: "explorer", Name: "layout"},
			wantErr: sessions.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.key.Path(tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionService_Get(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()

	spy.On("Get", ctx, "alice-id/explorer/layout.json").
		Return(io.NopCloser(strings.NewReader(`{"panels":2}`)), nil)

	data, err := s.Get(ctx, alice, sessions.SessionKey{Package: "explorer", Name: "layout"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"panels":2}`, string(data))
	spy.AssertExpectations(t)
}

func TestSessionService_Get_NotFound(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()

	spy.On("Get", ctx, "alice-id/explorer/missing.json").Return(nil, sessions.ErrNotFound)

	_, err := s.Get(ctx, alice, sessions.SessionKey{Package: "explorer", Name: "missing"})
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestSessionService_Get_Oversized(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "at limit", size: sessions.MaxSessionBytes},
		{name: "over limit", size: sessions.MaxSessionBytes + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := sessions.SessionKey{Package: "explorer", Name: "big"}
			spy.On("Get", ctx, "alice-id/explorer/big.json").
				Return(io.NopCloser(strings.NewReader(strings.Repeat(" ", tt.size))), nil).Once()

			data, err := s.Get(ctx, alice, key)
			if tt.wantErr {
				assert.ErrorIs(t, err, sessions.ErrInternal)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data, tt.size)
		})
	}
}

func TestSessionService_Put(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()

	spy.On("Put", ctx, "alice-id/explorer/layout.json", `{"a":1}`, "application/json").Return(nil)

	err := s.Put(ctx, alice, sessions.SessionKey{Package: "explorer", Name: "layout"}, []byte(`{"a":1}`))
	require.NoError(t, err)
	spy.AssertExpectations(t)
}

func TestSessionService_Put_InvalidJSON(t *testing.T) {
	s, spy := newService(t)

	err := s.Put(context.Background(), alice, sessions.SessionKey{Package: "explorer", Name: "layout"}, []byte(`{not json`))
	assert.ErrorIs(t, err, sessions.ErrInvalidInput)
	spy.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionService_Put_StorageError(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()
	storageErr := errors.New("bucket unavailable")

	spy.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storageErr)

	err := s.Put(ctx, alice, sessions.SessionKey{Package: "explorer", Name: "layout"}, []byte(`{}`))
	assert.ErrorIs(t, err, storageErr)
}

func TestSessionService_Delete(t *testing.T) {
	s, spy := newService(t)
	ctx := context.Background()

	spy.On("Delete", ctx, "alice-id/@youwol/explorer/layout.json").Return(nil)

	err := s.Delete(ctx, alice, sessions.SessionKey{Package: "@youwol/explorer", Name: "layout"})
	require.NoError(t, err)
	spy.AssertExpectations(t)
}

func TestSessionService_ContextCanceled(t *testing.T) {
	s, spy := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, alice, sessions.SessionKey{Package: "explorer", Name: "layout"})
	assert.ErrorIs(t, err, context.Canceled)
	spy.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestIdentityFromContext(t *testing.T) {
	_, err := sessions.IdentityFromContext(context.Background())
	assert.ErrorIs(t, err, sessions.ErrUnauthorized)

	ctx := sessions.WithIdentity(context.Background(), alice)
	got, err := sessions.IdentityFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}
