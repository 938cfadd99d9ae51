// Package namedex is a small HTTP client for the namedex query API.
package namedex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is the namedex SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures the Client.
type Option interface {
	apply(*Client)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *Client) {
		c.http = hc
	})
}

// New creates a Client for the given server base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// QueryResponse is the answer to one query.
type QueryResponse struct {
	Answer      string      `json:"answer"`
	Cited       []string    `json:"cited,omitempty"`
	Status      string      `json:"status"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics carries per-request pipeline details.
type Diagnostics struct {
	RequestID         string            `json:"request_id,omitempty"`
	State             string            `json:"state"`
	StageLatenciesMs  map[string]int64  `json:"stage_latencies_ms"`
	FailedCollections map[string]string `json:"failed_collections,omitempty"`
	DegradedReasons   []string          `json:"degraded_reasons,omitempty"`
	ContextDocs       []string          `json:"context_docs,omitempty"`
}

// HealthReport is the server health snapshot.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReloadReport summarizes a knowledge base reload.
type ReloadReport struct {
	Documents int            `json:"documents"`
	Counts    map[string]int `json:"counts"`
	TookMs    int64          `json:"took_ms"`
}

// APIError is a non-2xx response from the server.
// Use errors.As() to inspect the code.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("namedex: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Query asks the knowledge base a question.
func (c *Client) Query(ctx context.Context, query string) (QueryResponse, error) {
	var resp QueryResponse
	err := c.do(ctx, http.MethodPost, "/v1/query", map[string]string{"query": query}, &resp)
	return resp, err
}

// Health fetches the server health report.
func (c *Client) Health(ctx context.Context) (HealthReport, error) {
	var resp HealthReport
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// Reload asks the server to rebuild its index from the knowledge store.
func (c *Client) Reload(ctx context.Context) (ReloadReport, error) {
	var resp ReloadReport
	err := c.do(ctx, http.MethodPost, "/internal/reload", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("namedex: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("namedex: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("namedex: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	// Health reports degraded state with a 503 but still carries a body the
	// caller wants to see.
	if res.StatusCode >= 400 && !(path == "/health" && res.StatusCode == http.StatusServiceUnavailable) {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if decodeErr := json.NewDecoder(res.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Code = "unknown"
			apiErr.Message = res.Status
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("namedex: decode response: %w", err)
		}
	}
	return nil
}
