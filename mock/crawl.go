package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of siteqa.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ siteqa.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of siteqa.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(html, baseURL)
}
