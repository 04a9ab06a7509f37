package siteqa

import (
	"context"
	"regexp"
	"strings"
)

// SitemapService lists the pages an organization publishes in its sitemap.
type SitemapService interface {
	// DiscoverURLs returns the page URLs of the site at baseURL that pass
	// filter, in sitemap order without duplicates. Sitemaps announced in
	// robots.txt are read first, then /sitemap.xml; sitemap indexes are
	// followed. A site without a sitemap yields no URLs and no error.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter narrows a crawl to a part of the site, such as "/services/".
// A nil filter passes every URL.
type URLFilter struct {
	// Include, when set, keeps only URLs matching at least one pattern.
	Include []*regexp.Regexp

	// Exclude drops URLs matching any pattern, after Include.
	Exclude []*regexp.Regexp
}

// Match reports whether url passes the filter.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 && !matchAny(f.Include, url) {
		return false
	}
	return !matchAny(f.Exclude, url)
}

// String describes the filter for logs, e.g. "include=/news/ exclude=\.pdf$".
// A nil or empty filter is "".
func (f *URLFilter) String() string {
	if f == nil {
		return ""
	}
	var parts []string
	for _, re := range f.Include {
		parts = append(parts, "include="+re.String())
	}
	for _, re := range f.Exclude {
		parts = append(parts, "exclude="+re.String())
	}
	return strings.Join(parts, " ")
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
