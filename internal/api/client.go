package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/clickpot/internal/model"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Config holds HTTP client settings
type Config struct {
	// BaseURL is the service root, e.g. http://localhost:5000
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for the client
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:5000",
		Timeout: 30 * time.Second,
	}
}

// TokenSource supplies the bearer credential for authenticated calls.
// An empty string means no Authorization header is sent.
type TokenSource func() string

// Client is an HTTP client for the game service
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	logger     *slog.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

// New creates a new API client
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		jar:    jar,
		logger: logger.With(slog.String("component", "api")),
	}, nil
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// SetTokenSource sets where bearer credentials come from
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = tokens
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens()
}

// Cookies returns the cookies the service has set, for persisting between runs
func (c *Client) Cookies() []model.StoredCookie {
	cookies := c.jar.Cookies(c.baseURL)
	stored := make([]model.StoredCookie, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, model.StoredCookie{Name: ck.Name, Value: ck.Value, Path: "/"})
	}
	return stored
}

// SetCookies loads previously persisted cookies into the jar
func (c *Client) SetCookies(stored []model.StoredCookie) {
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		path := s.Path
		if path == "" {
			path = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: path, Expires: s.Expires})
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies drops every cookie held for the service
func (c *Client) ClearCookies() {
	cookies := c.jar.Cookies(c.baseURL)
	expired := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.baseURL, expired)
}

// requestOptions tweak a single call
type requestOptions struct {
	anonymous bool
}

type requestOption func(*requestOptions)

// withoutBearer skips the Authorization header; used by the refresh call,
// which authenticates with the reuse cookie only
func withoutBearer() requestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

// Do performs an HTTP request, decoding a JSON body into result
func (c *Client) Do(ctx context.Context, method, path string, body, result any, opts ...requestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	if !o.anonymous {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, result)
}
