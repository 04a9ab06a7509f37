// Package http implements page fetching and sitemap discovery over HTTP, and
// serves the question answering API.
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/siteqa"
)

// Fetch defaults.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultUserAgent    = "siteqa/1.0 (+https://github.com/fwojciec/siteqa)"

	// maxPageBytes bounds the size of a fetched page.
	maxPageBytes = 5 << 20
)

var _ siteqa.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves server-rendered HTML. It does not execute JavaScript.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for each request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{timeout: DefaultFetchTimeout, userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{Timeout: f.timeout}
	return f
}

// Fetch returns the HTML body served at url.
// Returns ENOTFOUND for 404 and 410, ERATELIMITED for 429, EUNAVAILABLE for
// server and network errors and EINVALID for responses that are not HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", siteqa.Errorf(siteqa.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", siteqa.Errorf(siteqa.EUNAVAILABLE, "fetching %s: %v", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, url); err != nil {
		return "", err
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return "", siteqa.Errorf(siteqa.EINVALID, "%s is not HTML (%s)", url, resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", siteqa.Errorf(siteqa.EUNAVAILABLE, "reading %s: %v", url, err)
	}
	return string(body), nil
}

// Close is a no-op; http.Client needs no cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func checkStatus(resp *http.Response, url string) error {
	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return siteqa.Errorf(siteqa.ENOTFOUND, "HTTP %d for %s", code, url)
	case code == http.StatusTooManyRequests:
		return siteqa.RateLimitedf(parseRetryAfter(resp.Header.Get("Retry-After")), "HTTP %d for %s", code, url)
	case code >= 500:
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "HTTP %d for %s", code, url)
	default:
		return siteqa.Errorf(siteqa.EINVALID, "HTTP %d for %s", code, url)
	}
}

// isHTML accepts HTML media types and responses without a Content-Type.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// parseRetryAfter reads a Retry-After value in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
