// Package nepq implements a client for the nepq query protocol used by the
// config store and the route-table service, and the repositories built on it.
package nepq

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acoshift/neppage/internal/domain"
)

// ContentType is the request media type of a nepq command.
const ContentType = "application/nepq"

// DefaultTimeout bounds every request when no client is supplied.
const DefaultTimeout = 10 * time.Second

// FetchResult is the body of a successful read, or a not-modified marker.
type FetchResult struct {
	Body        []byte
	ETag        string
	NotModified bool
}

// Client posts nepq commands to one endpoint.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
	timeout  time.Duration
}

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client for endpoint. encodedToken is the base64 form
// of the bearer token; it is decoded once here. An empty token disables the
// Authorization header.
func NewClient(endpoint, encodedToken string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	var token string
	if encodedToken != "" {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedToken))
		if err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		token = string(b)
	}

	c := &Client{
		endpoint: endpoint,
		token:    token,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// Fetch runs a read command. When etag is not empty it is sent as
// If-None-Match and a 304 answer yields NotModified.
func (c *Client) Fetch(ctx context.Context, command, etag string) (FetchResult, error) {
	resp, err := c.do(ctx, command, etag)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return FetchResult{NotModified: true, ETag: etag}, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return FetchResult{}, fmt.Errorf("%w: %s: status %d", domain.ErrFetchFailed, verb(command), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, fmt.Errorf("%w: failed to read response: %v", domain.ErrFetchFailed, err)
	}

	return FetchResult{Body: body, ETag: resp.Header.Get("ETag")}, nil
}

// Exec runs a mutation command. Any non-2xx answer is a failure; the call
// is never retried.
func (c *Client) Exec(ctx context.Context, command string) error {
	resp, err := c.do(ctx, command, "")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMutationFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s: status %d", domain.ErrMutationFailed, verb(command), resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, command, etag string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(command))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrFetchFailed, err)
	}

	req.Header.Set("Content-Type", ContentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return resp, nil
}

func verb(command string) string {
	if i := strings.IndexAny(command, "("); i > 0 {
		return command[:i]
	}
	return command
}
