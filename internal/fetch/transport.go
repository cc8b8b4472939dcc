// Package fetch performs upstream HTTP calls and walks paginated responses
// through the disk cache.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/iocache"
)

// ErrRequestTimeout is returned when a single request exceeds its deadline.
var ErrRequestTimeout = errors.New("request timed out")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s", e.URL, e.StatusCode, e.Status)
}

// Transport issues authenticated GET requests, each with its own deadline.
type Transport struct {
	client   *http.Client
	username string
	password string
	timeout  time.Duration
}

// NewTransport creates a transport using basic auth. An empty username with
// a token as password is the DevOps convention; Sonar passes the token as
// the username instead.
func NewTransport(username, password string, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = contract.DefaultRequestTimeout
	}
	return &Transport{
		client:   &http.Client{},
		username: username,
		password: password,
		timeout:  timeout,
	}
}

// WithHTTPClient replaces the underlying client.
func (t *Transport) WithHTTPClient(client *http.Client) *Transport {
	t.client = client
	return t
}

// Get performs one GET request and returns the raw response.
func (t *Transport) Get(ctx context.Context, rawURL string, query url.Values, headers map[string]string) (*iocache.FetchResult, error) {
	return t.do(ctx, http.MethodGet, rawURL, query, headers, nil)
}

// Post sends a JSON body and returns the raw response.
func (t *Transport) Post(ctx context.Context, rawURL string, query url.Values, body []byte) (*iocache.FetchResult, error) {
	return t.do(ctx, http.MethodPost, rawURL, query, map[string]string{"Content-Type": "application/json"}, body)
}

func (t *Transport) do(ctx context.Context, method, rawURL string, query url.Values, headers map[string]string, body []byte) (*iocache.FetchResult, error) {
	target := rawURL
	if len(query) > 0 {
		target = rawURL + "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if t.username != "" || t.password != "" {
		req.SetBasicAuth(t.username, t.password)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	contract.LogVerbose("%s %s", method, target)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, t.wrap(ctx, method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.wrap(ctx, method, target, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{URL: target, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	return &iocache.FetchResult{
		Status:  resp.StatusCode,
		Headers: flattenHeaders(resp.Header),
		Body:    respBody,
	}, nil
}

// Fetcher adapts Get into a cache fetch function.
func (t *Transport) Fetcher(rawURL string, query url.Values, headers map[string]string) iocache.FetchFunc {
	return func(ctx context.Context) (*iocache.FetchResult, error) {
		return t.Get(ctx, rawURL, query, headers)
	}
}

// PostFetcher adapts Post into a cache fetch function.
func (t *Transport) PostFetcher(rawURL string, query url.Values, body []byte) iocache.FetchFunc {
	return func(ctx context.Context) (*iocache.FetchResult, error) {
		return t.Post(ctx, rawURL, query, body)
	}
}

func (t *Transport) wrap(ctx context.Context, method, target string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %s %s", ErrRequestTimeout, t.timeout, method, target)
	}
	return fmt.Errorf("%s %s: %w", method, target, err)
}

// flattenHeaders keeps the first value of each response header.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
