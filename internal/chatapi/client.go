// Package chatapi provides the HTTP client for the remote chat backend.
// The backend exposes three endpoints: model discovery, chat and session reset.
package chatapi

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

	"flexchat/internal/logger"
	"flexchat/internal/version"
)

const (
	modelsPath = "/api/models"
	chatPath   = "/api/chat"
	clearPath  = "/api/clear"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// ErrEmptyURL is returned when a client is created without a server URL.
var ErrEmptyURL = errors.New("server URL is required")

// StatusError reports a non-2xx response that carried no API error message.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.Path, e.Status)
}

// Client talks to the chat backend over HTTP/JSON.
// It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	timeout time.Duration
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout, which is the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// NewClient creates a Client for the backend rooted at serverURL.
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	serverURL = strings.TrimSpace(serverURL)
	if serverURL == "" {
		return nil, ErrEmptyURL
	}

	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}

	c := &Client{
		baseURL: u,
		client:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Debug("Chat API client created", "server", u.String(), "timeout", c.timeout.String())
	return c, nil
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CloseIdleConnections closes keep-alive connections held by the transport.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// Models returns the model identifiers the backend currently offers.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, modelsPath, nil)
	if err != nil {
		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		return nil, resp.statusError()
	}

	var payload ModelsResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	return payload.Models, nil
}

// Chat posts one user message. An API-reported error comes back as a
// ChatResponse with Error set, whatever the HTTP status. A nil response with an
// error means the exchange itself failed.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, chatPath, body)
	if err != nil {
		return nil, err
	}

	var payload ChatResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		if !isSuccess(resp.StatusCode) {
			return nil, resp.statusError()
		}
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if !isSuccess(resp.StatusCode) && payload.Error == "" {
		return nil, resp.statusError()
	}

	return &payload, nil
}

// Clear asks the backend to drop the conversation kept for sessionID.
func (c *Client) Clear(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(ClearRequest{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to encode clear request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, clearPath, body)
	if err != nil {
		return err
	}

	if !isSuccess(resp.StatusCode) {
		return resp.statusError()
	}
	return nil
}

type rawResponse struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       []byte
}

func (r *rawResponse) statusError() *StatusError {
	return &StatusError{
		Method:     r.Method,
		Path:       r.Path,
		StatusCode: r.StatusCode,
		Status:     r.Status,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*rawResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL.JoinPath(path).String()
	logger.APICall(method, path, "url", target, "body_length", len(body))

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		logger.Debug("HTTP request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("HTTP request completed",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"body_length", len(data))

	return &rawResponse{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
	}, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
