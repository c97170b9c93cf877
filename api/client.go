// ABOUTME: HTTP client for the contacts API
// ABOUTME: Attaches JSON and bearer headers, turns non-2xx responses into *Error values
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// Client issues JSON requests against the API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout sets the per-request timeout on the http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a client for baseURL. tokens may be nil.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	headers http.Header
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

// WithHeader sets a header on the request, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers.Set(key, value)
	}
}

// Request sends body (JSON-encoded when non-nil) to endpoint and returns the raw
// response body. An empty success body yields a nil result.
func (c *Client) Request(ctx context.Context, endpoint, method string, body any, opts ...RequestOption) (json.RawMessage, error) {
	ro := requestOptions{headers: http.Header{}}
	for _, opt := range opts {
		opt(&ro)
	}

	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.String("request_id", requestID),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Error("request failed", zap.Error(err))
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			log.Error("request failed", zap.Error(err))
			return nil, fmt.Errorf("failed to read session token: %w", err)
		}
		if token != "" {
			(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
		}
	}

	for key, values := range ro.headers {
		req.Header[key] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("request failed", zap.Error(err))
		return nil, fmt.Errorf("failed to reach %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("request failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Endpoint: endpoint,
			Method:   method,
			Status:   resp.StatusCode,
			Data:     decodeEnvelope(data, resp.StatusCode),
		}
		log.Error("request failed", zap.Int("status", resp.StatusCode), zap.Error(apiErr))
		return nil, apiErr
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}
