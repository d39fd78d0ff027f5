// Package filesystem provides the local bucket storage backend.
// Objects are files below <root>/<bucket>; writes are atomic using a temp
// file and rename, and every operation is sandboxed by os.Root.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/google/uuid"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// Store provides bucket-scoped file system storage operations.
type Store struct {
	root   *os.Root
	bucket string
}

// NewFileStorage creates a new Store keeping bucket objects below root.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root, bucket string) *Store {
	return &Store{root: root, bucket: bucket}
}

// Open creates dir if needed and returns a Store rooted at it.
func Open(dir, bucket string) (*Store, error) {
	if !sessions.IsValidSegment(bucket) {
		return nil, fmt.Errorf("open file storage: %w: bucket %q", sessions.ErrInvalidInput, bucket)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("open file storage: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open file storage: %w", err)
	}
	return NewFileStorage(root, bucket), nil
}

// Bucket returns the bucket the store is bound to.
func (s *Store) Bucket() string {
	return s.bucket
}

// Dir returns the directory holding the buckets.
func (s *Store) Dir() string {
	return s.root.Name()
}

// Init creates the bucket directory.
func (s *Store) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.root.MkdirAll(s.bucket, 0o755); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Close releases the underlying root.
func (s *Store) Close() error {
	return s.root.Close()
}

func (s *Store) objectPath(p string) (string, error) {
	if !sessions.IsValidPath(p) {
		return "", fmt.Errorf("object path %q: %w", p, sessions.ErrInvalidInput)
	}
	return path.Join(s.bucket, p), nil
}

// Get opens a file for reading. Returns sessions.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := s.objectPath(p)
	if err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sessions.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes content to the given path using a temp file and rename.
// It creates intermediate directories as needed and respects context cancellation.
// The content type is not persisted: local objects are served as JSON.
func (s *Store) Put(ctx context.Context, p string, content io.Reader, _ string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	name, err := s.objectPath(p)
	if err != nil {
		return err
	}

	if err := s.root.MkdirAll(s.bucket, 0o755); err != nil {
		return fmt.Errorf("could not create bucket directory: %w", err)
	}

	tmpFile := path.Join(s.bucket, tmpFileName())
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: content}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if err := s.root.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("could not create intermediate directories: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, name); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return nil
}

// Delete removes a file. Returns sessions.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := s.objectPath(p)
	if err != nil {
		return err
	}

	if err := s.root.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessions.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// Exists reports whether a regular file is stored at path.
func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	name, err := s.objectPath(p)
	if err != nil {
		return false, err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("could not stat file: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
