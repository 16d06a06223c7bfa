package options

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Request is a remote option call with params already substituted.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  map[string]string
}

// Fetcher performs remote option calls and returns the decoded JSON payload.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (any, error)
}

// FetcherFunc adapts a function into a Fetcher.
type FetcherFunc func(ctx context.Context, req Request) (any, error)

// Fetch calls the underlying function.
func (fn FetcherFunc) Fetch(ctx context.Context, req Request) (any, error) {
	return fn(ctx, req)
}

// HTTPFetcher issues remote option calls over HTTP and decodes JSON bodies.
// GET, HEAD and DELETE send params in the query string; other methods send
// them as a JSON object body. URL path segments of the form `{param}` are
// filled from params and removed from the query or body.
type HTTPFetcher struct {
	client  *http.Client
	baseURL *url.URL
	headers map[string]string
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets a per-request timeout on a copy of the current client.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		if timeout <= 0 {
			return
		}
		clone := *f.client
		clone.Timeout = timeout
		f.client = &clone
	}
}

// WithBaseURL resolves relative source URLs against base.
func WithBaseURL(base string) HTTPOption {
	return func(f *HTTPFetcher) {
		if strings.TrimSpace(base) == "" {
			return
		}
		if parsed, err := url.Parse(base); err == nil {
			f.baseURL = parsed
		}
	}
}

// WithDefaultHeader adds a header sent with every request unless the source
// overrides it.
func WithDefaultHeader(key, value string) HTTPOption {
	return func(f *HTTPFetcher) {
		if key != "" {
			f.headers[key] = value
		}
	}
}

// NewHTTPFetcher constructs an HTTPFetcher using http.DefaultClient unless
// overridden.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  http.DefaultClient,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fetch performs the request and decodes the JSON response.
func (f *HTTPFetcher) Fetch(ctx context.Context, req Request) (any, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	reqURL, err := f.resolveURL(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	params := fillPath(reqURL, req.Params)

	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		q := reqURL.Query()
		for _, key := range sortedKeys(params) {
			q.Set(key, params[key])
		}
		reqURL.RawQuery = q.Encode()
	default:
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range f.headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: reqURL.String()}
	}
	if method == http.MethodHead || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return payload, nil
}

func (f *HTTPFetcher) resolveURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if f.baseURL != nil && !parsed.IsAbs() {
		return f.baseURL.ResolveReference(parsed), nil
	}
	return parsed, nil
}

// fillPath substitutes `{param}` path segments and returns the params left
// for the query or body.
func fillPath(u *url.URL, params map[string]string) map[string]string {
	rest := make(map[string]string, len(params))
	path := u.Path
	for key, value := range params {
		token := "{" + key + "}"
		if strings.Contains(path, token) {
			path = strings.ReplaceAll(path, token, url.PathEscape(value))
			continue
		}
		rest[key] = value
	}
	if path != u.Path {
		u.Path = path
		u.RawPath = ""
	}
	return rest
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
