// Package goquery implements link discovery on HTML pages using goquery.
package goquery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteqa"
)

var _ siteqa.LinkExtractor = (*LinkExtractor)(nil)

// linkGroups are searched in order; a URL keeps the position of the first
// group it appears in. Site navigation comes first so that the main
// sections of a site are crawled before pages linked from body text.
var linkGroups = []string{
	`nav a[href], header a[href], [role="navigation"] a[href], .navbar a[href], .nav a[href], .menu a[href], .main-nav a[href], .primary-nav a[href]`,
	`main a[href], article a[href], .content a[href]`,
	`a[href]`,
}

// sectionKeywords mark links to the pages that usually describe an
// organization. They are promoted ahead of other body links.
var sectionKeywords = []string{
	"about", "services", "team", "resources", "contact",
	"portfolio", "blog", "news", "careers", "clients",
}

// skippedExtensions are links to files that carry no page content.
var skippedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".svg": true, ".webp": true, ".zip": true, ".mp3": true, ".mp4": true,
	".css": true, ".js": true, ".xml": true, ".ico": true, ".doc": true,
	".docx": true, ".xls": true, ".xlsx": true,
}

// LinkExtractor finds same-host page links, navigation first.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks returns absolute same-host URLs in html. Links from site
// navigation come first, then links whose text or path names a common
// section (about, services, contact, ...), then the rest in document order.
func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "invalid base URL: %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var nav, sections, rest []string

	for group, selector := range linkGroups {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			resolved := resolveURL(base, href)
			if resolved == "" || seen[resolved] {
				return
			}
			seen[resolved] = true

			switch {
			case group == 0:
				nav = append(nav, resolved)
			case isSectionLink(sel.Text(), resolved):
				sections = append(sections, resolved)
			default:
				rest = append(rest, resolved)
			}
		})
	}

	links := make([]string, 0, len(nav)+len(sections)+len(rest))
	links = append(links, nav...)
	links = append(links, sections...)
	return append(links, rest...), nil
}

// resolveURL resolves href against base and returns "" for links that should
// not be crawled: other hosts, non-HTTP schemes, file downloads and links
// back to the base page itself.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || isNonHTTPLink(href) {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Hostname(), base.Hostname()) {
		return ""
	}
	if skippedExtensions[strings.ToLower(path.Ext(resolved.Path))] {
		return ""
	}

	self := *base
	self.Fragment = ""
	self.RawFragment = ""
	if resolved.String() == self.String() {
		return ""
	}
	return resolved.String()
}

func isSectionLink(text, resolved string) bool {
	text = strings.ToLower(text)
	u, err := url.Parse(resolved)
	if err != nil {
		return false
	}
	p := strings.ToLower(u.Path)
	for _, kw := range sectionKeywords {
		if strings.Contains(text, kw) || strings.Contains(p, kw) {
			return true
		}
	}
	return false
}

// isNonHTTPLink reports links such as javascript: or mailto: that cannot be
// fetched.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#")
}
