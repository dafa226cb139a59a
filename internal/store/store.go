// Package store implements the path-addressed REST client for the remote
// JSON tree that holds all Stutra records.
//
// # Overview
//
// The remote database is one big JSON tree addressed by slash-separated
// paths. The value under any path is a JSON sub-tree, and four verbs
// cover the entire protocol:
//
//	GET    {base}/{path}.json   read the sub-tree (absent reads as null)
//	PUT    {base}/{path}.json   replace the sub-tree
//	POST   {base}/{path}.json   create a child under a generated key
//	DELETE {base}/{path}.json   remove the sub-tree
//
// Each call is exactly one network round trip. The store offers no
// transactions, no compare-and-swap, and this client adds no retries:
// any sequence of calls can interleave with other clients, and callers
// own the decision to abort or continue when a call fails.
//
// # Usage
//
//	client, err := store.New("https://stutra-db.firebaseio.com")
//	if err != nil {
//		return err
//	}
//	raw, err := client.Get(ctx, "students/42")
//	if raw == nil && err == nil {
//		// path is absent
//	}
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds each round trip when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Tree is the store surface the engine components depend on. *Client is
// the HTTP implementation; storetest.Fake is the in-memory test double.
// The path "/" (or "") addresses the whole tree.
type Tree interface {
	// Get reads the JSON value at path. Absent paths yield (nil, nil).
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Put replaces the value at path with v.
	Put(ctx context.Context, path string, v any) error
	// Push creates a child of path under a store-generated key and
	// returns that key.
	Push(ctx context.Context, path string, v any) (string, error)
	// Delete removes the sub-tree at path.
	Delete(ctx context.Context, path string) error
}

// Client talks to the remote store over HTTP. Construct one per
// invocation and pass it by handle into each component; there is no
// package-level instance.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option adjusts a Client during construction.
type Option func(*Client)

// WithTimeout bounds each round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger routes request diagnostics to l.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for the store rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured store root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get reads the JSON value at path. The store reports absence as a JSON
// null body with status 200, so an absent path yields (nil, nil).
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if isNull(body) {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// GetInto reads the value at path and decodes it into v, reporting
// whether the path was present.
func (c *Client) GetInto(ctx context.Context, path string, v any) (bool, error) {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode value at %s: %w", path, err)
	}
	return true, nil
}

// Put replaces the value at path with v.
func (c *Client) Put(ctx context.Context, path string, v any) error {
	_, err := c.do(ctx, http.MethodPut, path, v)
	return err
}

// Push creates a child of path under a store-generated key and returns
// that key.
func (c *Client) Push(ctx context.Context, path string, v any) (string, error) {
	body, err := c.do(ctx, http.MethodPost, path, v)
	if err != nil {
		return "", err
	}
	var created struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to decode generated key for %s: %w", path, err)
	}
	if created.Name == "" {
		return "", fmt.Errorf("store returned no generated key for %s", path)
	}
	return created.Name, nil
}

// Delete removes the sub-tree at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// do performs one round trip and returns the raw response body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload for %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request for %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Printf("%s %s -> %d", method, path, resp.StatusCode)
		return nil, &StatusError{
			Op:         method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(data),
		}
	}
	return data, nil
}

// endpoint builds the request URL for a tree path. The root of the tree
// is addressed as {base}/.json.
func (c *Client) endpoint(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return c.baseURL + "/.json"
	}
	return c.baseURL + "/" + p + ".json"
}

func isNull(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null"
}

func truncateBody(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
