// Package httpclient is the shared JSON-over-HTTP caller used by every
// collaborator adapter. Each adapter owns one Client and therefore one
// circuit breaker. Requests are never retried here.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scanpay/internal/metrics"
	"scanpay/internal/utils"
)

// StatusError is returned for any non-2xx reply.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	name    string
	baseURL string
	hc      *http.Client
	breaker *utils.CircuitBreaker
	headers map[string]string
	auth    func() string
	metrics metrics.Recorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithBearer sets a token source evaluated on every request.
func WithBearer(token func() string) Option {
	return func(c *Client) { c.auth = token }
}

func WithMetrics(rec metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

func WithBreaker(cb *utils.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func New(name, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
		headers: map[string]string{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = utils.NewCircuitBreaker(name)
	}
	return c
}

// Post sends in as JSON and decodes the reply into out when out is non-nil.
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Do(ctx context.Context, method, path string, in, out interface{}) error {
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, method, path, in, out)
	})

	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.ObserveLatency(c.name+"."+strings.ToLower(method), time.Since(start), map[string]string{
		metrics.LabelResult: result,
	})

	if err != nil {
		return fmt.Errorf("%s %s %s: %w", c.name, method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.auth != nil {
		if token := c.auth(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rbody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(rbody))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}
	return nil
}
