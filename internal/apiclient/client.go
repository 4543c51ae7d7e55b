// Package apiclient is a small JSON-over-HTTP client for the task API.
// Construct one with New and pass it to the services that need it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kazz187/taskforge/pkg/cerr"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. WithTimeout applied
// later still adjusts its Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New returns a client rooted at baseURL. Endpoints passed to Get, Post and
// Delete are resolved relative to it, so "tasks" on
// "http://localhost:3100/api" hits "http://localhost:3100/api/tasks".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid api base url %q", baseURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unsupported api base url scheme %q", u.Scheme), nil)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// SetToken sets the bearer token sent with every later request. An empty
// token disables the header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, in, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, in, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) resolve(endpoint string) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid endpoint %q", endpoint), err)
	}
	if ref.IsAbs() {
		return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("endpoint %q must be relative", endpoint), nil)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	target, err := c.resolve(endpoint)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return cerr.NewError(cerr.InvalidArgument, "failed to encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return cerr.NewError(cerr.Canceled, "request canceled", err)
		}
		return cerr.NewError(cerr.Unavailable, "network error", err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "api request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return cerr.NewError(cerr.Internal, "failed to decode response body", err)
	}
	return nil
}

// statusError maps a non-2xx response to a coded error. A JSON cerr.Body
// supplies the message when the server sent one.
func statusError(resp *http.Response) error {
	code := codeFromStatus(resp.StatusCode)
	msg := http.StatusText(resp.StatusCode)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var b cerr.Body
	if len(data) > 0 && json.Unmarshal(data, &b) == nil && b.Message != "" {
		msg = b.Message
		return cerr.NewErrorWithDetails(code, msg, fmt.Errorf("http status %d", resp.StatusCode), b.Details)
	}
	return cerr.NewError(code, msg, fmt.Errorf("http status %d", resp.StatusCode))
}

func codeFromStatus(status int) cerr.Code {
	switch status {
	case http.StatusBadRequest:
		return cerr.InvalidArgument
	case http.StatusUnauthorized:
		return cerr.Unauthenticated
	case http.StatusNotFound:
		return cerr.NotFound
	case http.StatusConflict:
		return cerr.AlreadyExists
	default:
		return cerr.Unavailable
	}
}

// IsNetworkError reports whether err came from a failed or unavailable
// request rather than from a well-formed API rejection.
func IsNetworkError(err error) bool {
	return cerr.IsCode(err, cerr.Unavailable)
}
