// Package crawl scrapes an organization's website into stored documents.
// It coordinates URL discovery, fetching, content extraction, markdown
// conversion and storage.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteqa"
	"golang.org/x/sync/errgroup"
)

// Crawl defaults.
const (
	DefaultMaxPages    = 50
	DefaultConcurrency = 4

	// maxLinkDepth bounds link discovery: the seed page, the pages it links
	// to, and their subsections.
	maxLinkDepth = 2
)

// Crawler scrapes a site and saves each page as a document.
type Crawler struct {
	Sitemaps  siteqa.SitemapService
	Fetcher   siteqa.Fetcher
	Extractor siteqa.Extractor
	// Fallback is tried when Extractor fails or finds no content.
	Fallback     siteqa.Extractor
	Converter    siteqa.Converter
	Documents    siteqa.DocumentService
	Links        siteqa.LinkExtractor // optional, used when there is no sitemap
	RateLimiter  siteqa.DomainLimiter // optional
	TokenCounter siteqa.TokenCounter  // optional
	Filter       *siteqa.URLFilter
	MaxPages     int
	Concurrency  int
	RetryDelays  []time.Duration
}

// Result holds the outcome of a crawl.
type Result struct {
	Saved  int
	Failed int
	Bytes  int
	Tokens int

	// Documents are the saved documents in discovery order.
	Documents []*siteqa.Document
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// crawlResult holds the outcome of processing a single URL.
type crawlResult struct {
	position int
	url      string
	doc      *siteqa.Document
	err      error
}

// CrawlSite discovers up to MaxPages pages of the site at siteURL, fetches
// them concurrently and saves their main content. Pages are discovered from
// the sitemap; when the site has none, links are followed from the seed
// page. Individual page failures are counted, not returned.
func (c *Crawler) CrawlSite(ctx context.Context, siteURL string, progress ProgressFunc) (*Result, error) {
	seed, err := parseSiteURL(siteURL)
	if err != nil {
		return nil, err
	}

	urls, err := c.Sitemaps.DiscoverURLs(ctx, seed.String(), c.Filter)
	if err != nil {
		return nil, fmt.Errorf("sitemap discovery: %w", err)
	}

	var pages map[string]string
	if len(urls) == 0 {
		if c.Links != nil {
			urls, pages = c.discoverLinks(ctx, seed)
		} else {
			urls = []string{seed.String()}
		}
	}
	urls = urls[:min(len(urls), c.maxPages())]
	if len(urls) == 0 {
		return &Result{}, nil
	}

	total := len(urls)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	resultCh := make(chan crawlResult, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())

	go func() {
		for i, u := range urls {
			g.Go(func() error {
				resultCh <- c.processURL(gctx, i, u, pages[u])
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	var completed atomic.Int64
	results := make([]crawlResult, total)
	for result := range resultCh {
		n := int(completed.Add(1))
		results[result.position] = result

		if progress == nil {
			continue
		}
		event := ProgressEvent{Type: ProgressCompleted, Completed: n, Total: total, URL: result.url}
		if result.err != nil {
			event.Type = ProgressFailed
			event.Error = result.err
		}
		progress(event)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, result := range results {
		if result.err != nil {
			res.Failed++
			continue
		}
		if err := c.Documents.SaveDocument(ctx, result.doc); err != nil {
			res.Failed++
			continue
		}

		res.Saved++
		res.Bytes += len(result.doc.Content)
		res.Documents = append(res.Documents, result.doc)
		if c.TokenCounter != nil {
			if tokens, err := c.TokenCounter.CountTokens(ctx, result.doc.Content); err == nil {
				res.Tokens += tokens
			}
		}
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}
	return res, nil
}

// discoverLinks walks same-host links breadth first from the seed page.
// Pages fetched along the way are returned so they are not fetched twice.
func (c *Crawler) discoverLinks(ctx context.Context, seed *url.URL) ([]string, map[string]string) {
	maxPages := c.maxPages()
	frontier := NewFrontier()
	frontier.Push(seed.String(), 0)

	var urls []string
	pages := make(map[string]string)
	for len(urls) < maxPages && ctx.Err() == nil {
		u, depth, ok := frontier.Pop()
		if !ok {
			break
		}
		urls = append(urls, u)

		html, err := c.fetch(ctx, u, nil)
		if err != nil {
			continue
		}
		pages[u] = html

		if depth >= maxLinkDepth {
			continue
		}
		links, err := c.Links.ExtractLinks(html, u)
		if err != nil {
			continue
		}
		for _, link := range links {
			if sameHost(link, seed) && c.Filter.Match(link) {
				frontier.Push(link, depth+1)
			}
		}
	}
	return urls, pages
}

// processURL turns one page into a document. A page already fetched during
// discovery is not fetched again.
func (c *Crawler) processURL(ctx context.Context, position int, u, html string) crawlResult {
	result := crawlResult{position: position, url: u}

	if html == "" {
		var err error
		if html, err = c.fetch(ctx, u, c.retryDelays()); err != nil {
			result.err = err
			return result
		}
	}

	extracted, err := c.extract(html)
	if err != nil {
		result.err = err
		return result
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		result.err = err
		return result
	}
	markdown = NormalizeWhitespace(markdown)
	if markdown == "" {
		result.err = siteqa.Errorf(siteqa.EMALFORMED, "no content extracted from %s", u)
		return result
	}

	result.doc = &siteqa.Document{
		SourceURL:   u,
		Title:       strings.TrimSpace(extracted.Title),
		Description: strings.TrimSpace(extracted.Description),
		Content:     markdown,
	}
	return result
}

// fetch waits for the host's rate limit and fetches u, retrying after each
// of delays.
func (c *Crawler) fetch(ctx context.Context, u string, delays []time.Duration) (string, error) {
	fetchFn := func(ctx context.Context, u string) (string, error) {
		if c.RateLimiter != nil {
			if parsed, err := url.Parse(u); err == nil {
				if err := c.RateLimiter.Wait(ctx, parsed.Host); err != nil {
					return "", err
				}
			}
		}
		return c.Fetcher.Fetch(ctx, u)
	}
	return FetchWithRetryDelays(ctx, u, fetchFn, nil, delays)
}

func (c *Crawler) extract(html string) (*siteqa.ExtractResult, error) {
	extracted, err := c.Extractor.Extract(html)
	if err == nil && strings.TrimSpace(extracted.ContentHTML) != "" {
		return extracted, nil
	}
	if c.Fallback == nil {
		if err == nil {
			err = siteqa.Errorf(siteqa.EMALFORMED, "no main content found")
		}
		return nil, err
	}

	fallback, ferr := c.Fallback.Extract(html)
	if ferr != nil {
		return nil, ferr
	}
	// Keep metadata from the primary extractor when the fallback lacks it.
	if extracted != nil {
		if fallback.Title == "" {
			fallback.Title = extracted.Title
		}
		if fallback.Description == "" {
			fallback.Description = extracted.Description
		}
	}
	return fallback, nil
}

func (c *Crawler) maxPages() int {
	if c.MaxPages <= 0 {
		return DefaultMaxPages
	}
	return c.MaxPages
}

func (c *Crawler) concurrency() int {
	if c.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return c.Concurrency
}

func (c *Crawler) retryDelays() []time.Duration {
	if c.RetryDelays == nil {
		return DefaultRetryDelays()
	}
	return c.RetryDelays
}

// parseSiteURL validates an absolute http(s) URL.
func parseSiteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "site URL must be an absolute http(s) URL, got %q", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func sameHost(rawURL string, seed *url.URL) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(u.Hostname(), "www."), strings.TrimPrefix(seed.Hostname(), "www."))
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// NormalizeWhitespace trims trailing spaces from lines and collapses runs
// of blank lines to a single blank line.
func NormalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
