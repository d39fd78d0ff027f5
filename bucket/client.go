// Package bucket is a client of the platform storage service. It implements
// sessions.Storage for the networked environments.
//
// Objects live at {base}/{bucket}/objects/{path}; writes carry the owner
// group as a query parameter. Requests are authenticated by the HTTP client
// given at construction, usually an oauth2 client bound to the admin
// credentials of the service.
package bucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	sessions "github.com/youwol/cdn-sessions-storage"
)

// Client talks to the storage service for a single bucket.
type Client struct {
	base   string
	bucket string
	owner  string
	http   *http.Client
}

// New creates a Client. A nil httpClient uses http.DefaultClient.
func New(baseURL, bucket string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:   strings.TrimSuffix(baseURL, "/"),
		bucket: bucket,
		owner:  sessions.DefaultOwner,
		http:   httpClient,
	}
}

// NewWithTokenSource creates a Client whose requests carry a bearer token
// from ts. ctx may hold an oauth2.HTTPClient used as the base transport.
func NewWithTokenSource(ctx context.Context, baseURL, bucket string, ts oauth2.TokenSource) *Client {
	return New(baseURL, bucket, oauth2.NewClient(ctx, ts))
}

func (c *Client) Bucket() string {
	return c.bucket
}

// BaseURL returns the storage service URL.
func (c *Client) BaseURL() string {
	return c.base
}

func (c *Client) objectURL(p string) (string, error) {
	if !sessions.IsValidPath(p) {
		return "", fmt.Errorf("object path %q: %w", p, sessions.ErrInvalidInput)
	}
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	q := url.Values{"owner": {c.owner}}
	return c.base + "/" + url.PathEscape(c.bucket) + "/objects/" + strings.Join(segments, "/") + "?" + q.Encode(), nil
}

func (c *Client) Put(ctx context.Context, p string, content io.Reader, contentType string) error {
	u, err := c.objectURL(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, content)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("put object %s: %w", p, err)
	}
	drain(resp)
	return nil
}

func (c *Client) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	u, err := c.objectURL(p)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", p, err)
	}
	return resp.Body, nil
}

func (c *Client) Delete(ctx context.Context, p string) error {
	u, err := c.objectURL(p)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", p, err)
	}
	drain(resp)
	return nil
}

func (c *Client) Exists(ctx context.Context, p string) (bool, error) {
	u, err := c.objectURL(p)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, fmt.Errorf("stat object: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", p, err)
	}
	drain(resp)
	return true, nil
}

// Init ensures the bucket exists. A bucket created concurrently by another
// replica is not an error.
func (c *Client) Init(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"name": c.bucket, "owner": c.owner})
	if err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/buckets", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ensure bucket %s: %w", c.bucket, err)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusConflict || resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("ensure bucket %s: %w", c.bucket, statusError(resp))
}

// Ping checks that the storage service answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("ping storage: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("ping storage: %w", err)
	}
	drain(resp)
	return nil
}

// do sends req and maps non-2xx responses onto the sessions error sentinels.
// On success the caller owns resp.Body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer drain(resp)
	return nil, statusError(resp)
}

// StatusError is returned for unexpected storage service responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("storage service: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("storage service: %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return sessions.ErrNotFound
	case e.Code == http.StatusBadRequest:
		return sessions.ErrInvalidInput
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden:
		return sessions.ErrUpstreamRejected
	default:
		return sessions.ErrInternal
	}
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
