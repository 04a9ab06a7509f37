package siteqa

import "context"

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// LinkExtractor finds links worth crawling on an HTML page.
type LinkExtractor interface {
	// ExtractLinks returns absolute same-site URLs found in html, most
	// important first (navigation before body links). The baseURL is used
	// to resolve relative URLs.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
