package crawl_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site serves fixed pages keyed by URL and records fetches.
type site struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched map[string]int
}

func newSite(pages map[string]string) *site {
	return &site{pages: pages, fetched: make(map[string]int)}
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.fetched[url]++
			html, ok := s.pages[url]
			if !ok {
				return "", siteqa.Errorf(siteqa.ENOTFOUND, "HTTP 404 for %s", url)
			}
			return html, nil
		},
	}
}

func (s *site) fetchCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetched[url]
}

// passthrough extractor and converter: the page body is the content and the
// first line is the title.
func passthroughExtractor() *mock.Extractor {
	return &mock.Extractor{
		ExtractFn: func(html string) (*siteqa.ExtractResult, error) {
			title, _, _ := strings.Cut(html, "\n")
			return &siteqa.ExtractResult{Title: title, Description: "desc", ContentHTML: html}, nil
		},
	}
}

func passthroughConverter() *mock.Converter {
	return &mock.Converter{
		ConvertFn: func(html string) (string, error) { return html, nil },
	}
}

func noSitemap() *mock.SitemapService {
	return &mock.SitemapService{
		DiscoverURLsFn: func(context.Context, string, *siteqa.URLFilter) ([]string, error) {
			return nil, nil
		},
	}
}

func sitemapOf(urls ...string) *mock.SitemapService {
	return &mock.SitemapService{
		DiscoverURLsFn: func(context.Context, string, *siteqa.URLFilter) ([]string, error) {
			return urls, nil
		},
	}
}

type savedDocs struct {
	mu   sync.Mutex
	docs []*siteqa.Document
}

func (s *savedDocs) service() *mock.DocumentService {
	return &mock.DocumentService{
		SaveDocumentFn: func(_ context.Context, doc *siteqa.Document) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.docs = append(s.docs, doc)
			return nil
		},
	}
}

func TestCrawler_CrawlSite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("saves sitemap pages in order", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			"https://example.org/":      "Home\nWelcome to the food bank.",
			"https://example.org/about": "About\nWe started in 1998.",
			"https://example.org/hours": "Hours\nOpen Tuesdays.",
		})
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:    sitemapOf("https://example.org/", "https://example.org/about", "https://example.org/hours"),
			Fetcher:     s.fetcher(),
			Extractor:   passthroughExtractor(),
			Converter:   passthroughConverter(),
			Documents:   saved.service(),
			Concurrency: 3,
			RetryDelays: noDelays,
		}

		var events []crawl.ProgressEvent
		var mu sync.Mutex
		result, err := c.CrawlSite(ctx, "https://example.org", func(e crawl.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		})
		require.NoError(t, err)

		assert.Equal(t, 3, result.Saved)
		assert.Equal(t, 0, result.Failed)
		require.Len(t, result.Documents, 3)
		assert.Equal(t, "https://example.org/about", result.Documents[1].SourceURL)
		assert.Equal(t, "About", result.Documents[1].Title)
		assert.Equal(t, "desc", result.Documents[1].Description)
		assert.Equal(t, "https://example.org/", saved.docs[0].SourceURL)

		require.NotEmpty(t, events)
		assert.Equal(t, crawl.ProgressStarted, events[0].Type)
		assert.Equal(t, 3, events[0].Total)
		assert.Equal(t, crawl.ProgressFinished, events[len(events)-1].Type)
	})

	t.Run("caps pages at max pages", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			"https://example.org/a": "A\ntext",
			"https://example.org/b": "B\ntext",
			"https://example.org/c": "C\ntext",
		})
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:    sitemapOf("https://example.org/a", "https://example.org/b", "https://example.org/c"),
			Fetcher:     s.fetcher(),
			Extractor:   passthroughExtractor(),
			Converter:   passthroughConverter(),
			Documents:   saved.service(),
			MaxPages:    2,
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)

		assert.Equal(t, 2, result.Saved)
		assert.Zero(t, s.fetchCount("https://example.org/c"))
	})

	t.Run("counts failed and empty pages", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			"https://example.org/ok":    "OK\nreal content",
			"https://example.org/empty": "   \n\n  ",
		})
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:    sitemapOf("https://example.org/ok", "https://example.org/missing", "https://example.org/empty"),
			Fetcher:     s.fetcher(),
			Extractor:   passthroughExtractor(),
			Converter:   passthroughConverter(),
			Documents:   saved.service(),
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Saved)
		assert.Equal(t, 2, result.Failed)
		assert.Equal(t, 1, s.fetchCount("https://example.org/missing"), "404 is not retried")
	})

	t.Run("follows same-host links when there is no sitemap", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{
			"https://example.org/":             "Home\nhome",
			"https://example.org/services":     "Services\nwhat we do",
			"https://example.org/services/tax": "Tax help\nfree tax clinics",
			"https://example.org/contact":      "Contact\ncall us",
		})
		links := map[string][]string{
			"https://example.org/": {
				"https://example.org/services",
				"https://example.org/contact",
				"https://other.example.com/elsewhere",
				"https://example.org/#top",
			},
			"https://example.org/services": {"https://example.org/services/tax", "https://example.org/"},
		}
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:  noSitemap(),
			Fetcher:   s.fetcher(),
			Extractor: passthroughExtractor(),
			Converter: passthroughConverter(),
			Documents: saved.service(),
			Links: &mock.LinkExtractor{
				ExtractLinksFn: func(_ string, baseURL string) ([]string, error) {
					return links[baseURL], nil
				},
			},
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)

		var got []string
		for _, doc := range result.Documents {
			got = append(got, doc.SourceURL)
		}
		assert.Equal(t, []string{
			"https://example.org/",
			"https://example.org/services",
			"https://example.org/contact",
			"https://example.org/services/tax",
		}, got)
		assert.Equal(t, 1, s.fetchCount("https://example.org/services"), "discovered pages are not fetched twice")
		assert.Zero(t, s.fetchCount("https://other.example.com/elsewhere"))
	})

	t.Run("crawls only the seed without sitemap or link extractor", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{"https://example.org/": "Home\nhello"})
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:    noSitemap(),
			Fetcher:     s.fetcher(),
			Extractor:   passthroughExtractor(),
			Converter:   passthroughConverter(),
			Documents:   saved.service(),
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Saved)
	})

	t.Run("uses fallback extractor when primary finds nothing", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{"https://example.org/": "<html>page</html>"})
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps: noSitemap(),
			Fetcher:  s.fetcher(),
			Extractor: &mock.Extractor{
				ExtractFn: func(string) (*siteqa.ExtractResult, error) {
					return &siteqa.ExtractResult{Title: "From metadata", Description: "About us"}, nil
				},
			},
			Fallback: &mock.Extractor{
				ExtractFn: func(string) (*siteqa.ExtractResult, error) {
					return &siteqa.ExtractResult{ContentHTML: "<p>Fallback body</p>"}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(string) (string, error) { return "Fallback body", nil },
			},
			Documents:   saved.service(),
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)

		require.Len(t, result.Documents, 1)
		doc := result.Documents[0]
		assert.Equal(t, "Fallback body", doc.Content)
		assert.Equal(t, "From metadata", doc.Title)
		assert.Equal(t, "About us", doc.Description)
	})

	t.Run("waits on the rate limiter per host", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{"https://example.org/": "Home\nhello"})
		var hosts []string
		var mu sync.Mutex
		var saved savedDocs
		c := &crawl.Crawler{
			Sitemaps:  noSitemap(),
			Fetcher:   s.fetcher(),
			Extractor: passthroughExtractor(),
			Converter: passthroughConverter(),
			Documents: saved.service(),
			RateLimiter: &mock.DomainLimiter{
				WaitFn: func(_ context.Context, host string) error {
					mu.Lock()
					defer mu.Unlock()
					hosts = append(hosts, host)
					return nil
				},
			},
			RetryDelays: noDelays,
		}

		_, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"example.org"}, hosts)
	})

	t.Run("counts save failures", func(t *testing.T) {
		t.Parallel()

		s := newSite(map[string]string{"https://example.org/": "Home\nhello"})
		c := &crawl.Crawler{
			Sitemaps:  noSitemap(),
			Fetcher:   s.fetcher(),
			Extractor: passthroughExtractor(),
			Converter: passthroughConverter(),
			Documents: &mock.DocumentService{
				SaveDocumentFn: func(context.Context, *siteqa.Document) error {
					return errors.New("disk full")
				},
			},
			RetryDelays: noDelays,
		}

		result, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Saved)
		assert.Equal(t, 1, result.Failed)
	})

	t.Run("rejects invalid site URL", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{}

		_, err := c.CrawlSite(ctx, "not a url", nil)
		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
	})

	t.Run("propagates sitemap errors", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Sitemaps: &mock.SitemapService{
				DiscoverURLsFn: func(context.Context, string, *siteqa.URLFilter) ([]string, error) {
					return nil, errors.New("dns failure")
				},
			},
		}

		_, err := c.CrawlSite(ctx, "https://example.org", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sitemap discovery")
	})
}

func TestNormalizeWhitespace(t *testing.T) {
	t.Parallel()

	got := crawl.NormalizeWhitespace("  # Title  \r\n\r\n\r\n\nBody text   \n\n\n\nMore\n")

	assert.Equal(t, "# Title\n\nBody text\n\nMore", got)
}
