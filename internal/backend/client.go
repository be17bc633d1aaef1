// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the legal-assistant backend.
//
// The backend exposes four endpoints:
//
//	POST   /chat                     ask a question, returns reply, analysis and session id
//	GET    /sessions?client_id=<id>  list the client's past sessions
//	GET    /sessions/{id}            fetch one session's messages
//	DELETE /sessions/{id}            delete a session
//
// Request and response bodies are never logged. Every call waits on a client-side
// rate limiter so that bursts of refreshes from the UI cannot flood the backend.
package backend

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
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/lawassist-tui/internal/model"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is used when no api.base_url is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of extra attempts for idempotent reads.
	DefaultMaxRetries = 2

	// retryBaseDelay is the first backoff delay; each retry doubles it.
	retryBaseDelay = 250 * time.Millisecond

	// MaxResponseSize is the maximum accepted response body size.
	MaxResponseSize = 4 * 1024 * 1024

	// maxErrorBody caps how much of an error body is kept on APIError.
	maxErrorBody = 512

	userAgent = "lawassist/0.1.0"
)

// Error variables for common backend failures.
var (
	// ErrUnavailable wraps every transport-level failure (refused connection,
	// timeout, cancelled context).
	ErrUnavailable = errors.New("backend unavailable")

	// ErrResponseTooLarge indicates the response exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrInvalidResponse indicates the body could not be decoded.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string  `json:"message"`
	Style     string  `json:"style,omitempty"`
	SessionID *string `json:"session_id"`
	ClientID  string  `json:"client_id"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Reply     string                 `json:"reply"`
	Analysis  *model.AnalysisSummary `json:"analysis,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// sessionResponse is the body returned by GET /sessions/{id}.
type sessionResponse struct {
	ID       string          `json:"id,omitempty"`
	Title    string          `json:"title,omitempty"`
	Messages []model.Message `json:"messages"`
}

// API is the set of backend operations the client relies on.
type API interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	ListSessions(ctx context.Context, clientID string) ([]model.Session, error)
	GetSession(ctx context.Context, id string) ([]model.Message, error)
	DeleteSession(ctx context.Context, id string) error
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

var _ API = (*Client)(nil)

// NewClient creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		maxRetries: DefaultMaxRetries,
		logger:     zap.NewNop(),
	}
}

// WithBaseURL sets a custom base URL.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithMaxRetries sets the number of extra attempts for idempotent reads.
// POST /chat is never retried.
func (c *Client) WithMaxRetries(n int) *Client {
	if n < 0 {
		n = 0
	}
	c.maxRetries = n
	return c
}

// WithRateLimit replaces the client-side rate limiter. A nil limiter disables it.
func (c *Client) WithRateLimit(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// WithLogger sets the logger used for request/response lines.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Chat posts one question. It is never retried: a timed-out question may still have
// been answered and stored by the backend.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", body, 0, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSessions returns the client's sessions, newest first as ordered by the backend.
func (c *Client) ListSessions(ctx context.Context, clientID string) ([]model.Session, error) {
	path := "/sessions?client_id=" + url.QueryEscape(clientID)
	var out []model.Session
	if err := c.do(ctx, http.MethodGet, path, nil, c.maxRetries, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession returns one session's messages.
func (c *Client) GetSession(ctx context.Context, id string) ([]model.Message, error) {
	var out sessionResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(id), nil, c.maxRetries, &out); err != nil {
		return nil, err
	}
	for i, m := range out.Messages {
		if !m.Role.Valid() {
			return nil, fmt.Errorf("%w: session %s message %d has role %q", ErrInvalidResponse, id, i, m.Role)
		}
	}
	return out.Messages, nil
}

// DeleteSession deletes a session on the backend.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, 0, nil)
}

// Ping checks that the backend answers at all. Any HTTP response counts, so only
// transport failures (wrapping ErrUnavailable) are returned.
func (c *Client) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/", nil, 0, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return nil
	}
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs one request with up to retries extra attempts on transport errors and
// 5xx responses, then decodes a 2xx body into out (skipped when out is nil).
func (c *Client) do(ctx context.Context, method, path string, body []byte, retries int, out any) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		data, err := c.roundTrip(ctx, method, path, body)
		if err == nil {
			if out == nil || len(bytes.TrimSpace(data)) == 0 {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
			}
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", zap.String("method", method), zap.String("path", req.URL.Path))
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", req.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := readResponse(resp.Body)
	c.logger.Debug("api response",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		if errors.Is(err, ErrResponseTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if r := []rune(msg); len(r) > maxErrorBody {
			msg = string(r[:maxErrorBody])
		}
		return nil, &APIError{Method: method, Path: req.URL.Path, Status: resp.StatusCode, Body: msg}
	}
	return data, nil
}

// readResponse reads at most MaxResponseSize bytes.
func readResponse(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}
