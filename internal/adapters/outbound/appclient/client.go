// Package appclient calls the Lenra app under test: it posts a JSON request
// and decodes the JSON response.
package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

// Client posts requests to a running app. It has no timeout and no retry: a
// hung app blocks the call until ctx is done.
type Client struct {
	url        string
	httpClient *http.Client
}

var _ domain.AppCaller = (*Client)(nil)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithURL sets the app URL.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a client for the app at domain.DefaultAppURL unless WithURL
// says otherwise.
func New(opts ...Option) *Client {
	c := &Client{
		url:        domain.DefaultAppURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the app URL requests are posted to.
func (c *Client) URL() string { return c.url }

// Call posts request as JSON and decodes the response. Numbers are kept as
// json.Number so integer and float responses stay distinguishable.
func (c *Client) Call(ctx context.Context, request any) (any, error) {
	start := time.Now()

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("app request failed",
			slog.String("url", c.url),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("calling app: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		slog.Debug("app request returned error",
			slog.String("url", c.url),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, parseError(resp)
	}

	var result any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	slog.Debug("app request completed",
		slog.String("url", c.url),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// APIError is an error status returned by the app.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("app returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("app returned status %d: %s", e.StatusCode, e.Message)
}

// errorResponse is the JSON body of an app error.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		if errResp.Message != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Message}
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
