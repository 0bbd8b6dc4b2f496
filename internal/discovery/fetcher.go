package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxBodySize = 10 << 20

// Response is the part of an HTTP response discovery needs.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves a URL. Implementations must follow redirects.
type Fetcher interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches over net/http.
type HTTPFetcher struct {
	client      *http.Client
	bearerToken string
	userAgent   string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) { f.client.Timeout = d }
}

// WithBearerToken sends an Authorization header, for manifests behind auth.
func WithBearerToken(token string) Option {
	return func(f *HTTPFetcher) { f.bearerToken = token }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// NewHTTPFetcher creates a fetcher with a 30s timeout.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: "webagents/0.1",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get performs a GET request and reads the whole body.
func (f *HTTPFetcher) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/markdown, text/html;q=0.9, */*;q=0.8")
	if f.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.bearerToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
