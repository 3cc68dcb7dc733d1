// Package transport carries provider requests over HTTP, including
// Server-Sent Events streams.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBodySize caps how much of a failed response body is kept.
const maxErrorBodySize int64 = 64 * 1024

// StatusError reports a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// Client wraps the HTTP client for provider API calls.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	// streamClient has no overall timeout; streams are bounded by ctx.
	streamClient *http.Client
}

// NewClient creates a client for baseURL that sends headers on every request.
func NewClient(baseURL string, timeout time.Duration, headers map[string]string) *Client {
	h := make(http.Header, len(headers))
	for k, v := range headers {
		h.Set(k, v)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: h,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		streamClient: &http.Client{},
	}
}

// BaseURL returns the endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PostJSON sends body to path and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.do(ctx, c.httpClient, path, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return nil
}

// PostStream sends body to path and returns the open response. The caller
// must close the body.
func (c *Client) PostStream(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, c.streamClient, path, body, "text/event-stream")
}

func (c *Client) do(ctx context.Context, client *http.Client, path string, body any, accept string) (*http.Response, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range c.headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	return resp, nil
}
