package sessions

import (
	"context"
	"io"
	"time"
)

const (
	// Namespace is the bucket holding every session document.
	Namespace = "cdn-sessions-storage"
	// DefaultOwner is the owner group attached to objects written in the bucket.
	DefaultOwner = "/youwol-users"
	// CachePrefix prefixes keys written by the service in a shared cache.
	CachePrefix = "cdn-sessions-storage_"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject  string   `json:"sub"`
	Username string   `json:"preferred_username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"groups,omitempty"`
}

// IsZero reports whether no caller has been attached.
func (i Identity) IsZero() bool {
	return i.Subject == ""
}

// Storage is the object storage capability. Implementations are bound to a
// single bucket and are safe for concurrent use.
type Storage interface {
	// Bucket returns the bucket (namespace) the storage is bound to.
	Bucket() string

	// Put stores content at path, replacing any existing object.
	Put(ctx context.Context, path string, content io.Reader, contentType string) error

	// Get opens the object at path. Returns ErrNotFound if it does not exist.
	// The caller closes the returned reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}

// Cache is a small key-value capability with per-entry expiry.
type Cache interface {
	// Get returns the value stored at key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value at key for ttl. A non-positive ttl is rejected.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// TTL returns the remaining lifetime of key, or ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Initializer is implemented by capabilities needing a warm-up before the
// service accepts traffic (creating a bucket root, probing a remote service).
type Initializer interface {
	Init(ctx context.Context) error
}

// Pinger is implemented by capabilities able to verify connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
