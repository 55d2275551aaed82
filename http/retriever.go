// Package http provides an HTTP-based implementation of sitemirror.Retriever
// and sitemap discovery for seeding a mirror.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/sitemirror"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultUserAgent identifies the mirror to the origin site.
const DefaultUserAgent = "sitemirror/1.0"

// Ensure Retriever implements sitemirror.Retriever at compile time.
var _ sitemirror.Retriever = (*Retriever)(nil)

// Retriever fetches content with anonymous GET requests.
type Retriever struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTimeout sets the timeout for HTTP requests.
// A zero duration disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Retriever) {
		r.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(r *Retriever) {
		r.userAgent = ua
	}
}

// NewRetriever creates a new HTTP-based Retriever.
func NewRetriever(opts ...Option) *Retriever {
	r := &Retriever{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.client = &http.Client{
		Timeout: r.timeout,
	}

	return r
}

// FetchText retrieves absoluteURL and decodes the body to UTF-8 using the
// charset declared by the response.
func (r *Retriever) FetchText(ctx context.Context, absoluteURL string) (string, error) {
	return r.fetchText(ctx, absoluteURL, true)
}

// FetchTextAnyStatus is like FetchText but also returns the body of non-2xx
// responses, which is how a custom "not found" page is captured.
func (r *Retriever) FetchTextAnyStatus(ctx context.Context, absoluteURL string) (string, error) {
	return r.fetchText(ctx, absoluteURL, false)
}

// FetchBinary retrieves absoluteURL and returns the body bytes verbatim.
func (r *Retriever) FetchBinary(ctx context.Context, absoluteURL string) ([]byte, error) {
	resp, err := r.get(ctx, absoluteURL, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (r *Retriever) fetchText(ctx context.Context, absoluteURL string, requireSuccess bool) (string, error) {
	resp, err := r.get(ctx, absoluteURL, requireSuccess)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", absoluteURL, err)
	}
	text, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// get issues the request. The caller must close the response body.
func (r *Retriever) get(ctx context.Context, absoluteURL string, requireSuccess bool) (*http.Response, error) {
	u, err := url.Parse(absoluteURL)
	if err != nil || !u.IsAbs() {
		return nil, sitemirror.Errorf(sitemirror.EINVALID, "url %q must be absolute", absoluteURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absoluteURL, nil)
	if err != nil {
		return nil, err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	if requireSuccess && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, absoluteURL)
	}

	return resp, nil
}
