package main_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	main "github.com/fwojciec/siteqa/cmd/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexerFunc adapts a function to main.DocumentIndexer.
type indexerFunc func(ctx context.Context, docs []*siteqa.Document) (*siteqa.RebuildResult, error)

func (f indexerFunc) IndexDocuments(ctx context.Context, docs []*siteqa.Document) (*siteqa.RebuildResult, error) {
	return f(ctx, docs)
}

// newTestCrawler returns a crawler over mocks that serves one page per URL.
func newTestCrawler(urls []string, saved *[]*siteqa.Document) *crawl.Crawler {
	return &crawl.Crawler{
		Sitemaps: &mock.SitemapService{
			DiscoverURLsFn: func(context.Context, string, *siteqa.URLFilter) ([]string, error) {
				return urls, nil
			},
		},
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, u string) (string, error) {
				if u == "https://example.org/broken" {
					return "", siteqa.Errorf(siteqa.ENOTFOUND, "page not found")
				}
				return "<html><body><p>Page</p></body></html>", nil
			},
		},
		Extractor: &mock.Extractor{
			ExtractFn: func(string) (*siteqa.ExtractResult, error) {
				return &siteqa.ExtractResult{Title: "Page", ContentHTML: "<p>Page content</p>"}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(string) (string, error) { return "Page content", nil },
		},
		Documents: &mock.DocumentService{
			SaveDocumentFn: func(_ context.Context, doc *siteqa.Document) error {
				*saved = append(*saved, doc)
				return nil
			},
		},
		Concurrency: 1,
		RetryDelays: []time.Duration{},
	}
}

func TestScrapeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("scrapes pages and reports totals", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  stderr,
			Crawler: newTestCrawler([]string{"https://example.org/", "https://example.org/broken"}, &saved),
		}

		err := (&main.ScrapeCmd{URL: "https://example.org"}).Run(deps)

		require.NoError(t, err)
		require.Len(t, saved, 1)
		assert.Equal(t, "https://example.org/", saved[0].SourceURL)
		assert.Contains(t, stdout.String(), "Found 2 pages")
		assert.Contains(t, stdout.String(), "Saved 1 pages")
		assert.Contains(t, stdout.String(), "Failed 1 pages")
		assert.Contains(t, stderr.String(), "skip https://example.org/broken: page not found")
	})

	t.Run("uses the configured site URL", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		var gotBase string
		crawler := newTestCrawler(nil, &saved)
		crawler.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(_ context.Context, baseURL string, _ *siteqa.URLFilter) ([]string, error) {
				gotBase = baseURL
				return []string{"https://example.org/about"}, nil
			},
		}
		cfg := siteqa.DefaultConfig()
		cfg.Site.URL = "https://example.org"
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Config:  &cfg,
			Crawler: crawler,
		}

		err := (&main.ScrapeCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "https://example.org/", gotBase)
		assert.Len(t, saved, 1)
	})

	t.Run("requires a URL", func(t *testing.T) {
		t.Parallel()

		cfg := siteqa.DefaultConfig()
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
			Config: &cfg,
		}

		err := (&main.ScrapeCmd{}).Run(deps)

		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
		assert.Contains(t, stderr.String(), "site.url")
	})

	t.Run("rejects invalid filter patterns", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Crawler: newTestCrawler(nil, &saved),
		}

		err := (&main.ScrapeCmd{URL: "https://example.org", Filter: []string{"[invalid"}}).Run(deps)

		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
	})

	t.Run("applies max pages and filters", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		crawler := newTestCrawler([]string{"https://example.org/a", "https://example.org/b", "https://example.org/c"}, &saved)
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  &bytes.Buffer{},
			Crawler: crawler,
		}

		err := (&main.ScrapeCmd{URL: "https://example.org", MaxPages: 2, Filter: []string{"/services"}}).Run(deps)

		require.NoError(t, err)
		assert.Len(t, saved, 2)
		assert.Equal(t, 2, crawler.MaxPages)
		require.NotNil(t, crawler.Filter)
		assert.True(t, crawler.Filter.Match("https://example.org/services/tax"))
	})

	t.Run("indexes scraped pages when asked", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		var indexed []*siteqa.Document
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Crawler: newTestCrawler([]string{"https://example.org/a", "https://example.org/b"}, &saved),
			Indexer: indexerFunc(func(_ context.Context, docs []*siteqa.Document) (*siteqa.RebuildResult, error) {
				indexed = docs
				return &siteqa.RebuildResult{Documents: len(docs), Chunks: 5}, nil
			}),
		}

		err := (&main.ScrapeCmd{URL: "https://example.org", Index: true}).Run(deps)

		require.NoError(t, err)
		assert.Len(t, indexed, 2)
		assert.Contains(t, stdout.String(), "Indexed 5 chunks from 2 pages")
	})

	t.Run("reports indexing errors", func(t *testing.T) {
		t.Parallel()

		var saved []*siteqa.Document
		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Crawler: newTestCrawler([]string{"https://example.org/a"}, &saved),
			Indexer: indexerFunc(func(context.Context, []*siteqa.Document) (*siteqa.RebuildResult, error) {
				return nil, siteqa.Errorf(siteqa.ECONFLICT, "index rebuild in progress")
			}),
		}

		err := (&main.ScrapeCmd{URL: "https://example.org", Index: true}).Run(deps)

		assert.Equal(t, siteqa.ECONFLICT, siteqa.ErrorCode(err))
		assert.Contains(t, stderr.String(), "index rebuild in progress")
	})
}
