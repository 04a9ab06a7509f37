package main

import (
	"fmt"
	"regexp"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	siteURL := c.URL
	if siteURL == "" && deps.Config != nil {
		siteURL = deps.Config.Site.URL
	}
	if siteURL == "" {
		fmt.Fprintln(deps.Stderr, "error: no URL given and site.url is not configured")
		return siteqa.Errorf(siteqa.EINVALID, "site URL required")
	}

	var urlFilter *siteqa.URLFilter
	if len(c.Filter) > 0 {
		urlFilter = &siteqa.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return siteqa.Errorf(siteqa.EINVALID, "invalid filter pattern %q", pattern)
			}
			urlFilter.Include = append(urlFilter.Include, re)
		}
		deps.Crawler.Filter = urlFilter
	}
	if c.MaxPages > 0 {
		deps.Crawler.MaxPages = c.MaxPages
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Found %d pages\n", event.Total)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", event.URL, siteqa.ErrorMessage(event.Error))
		}
	}

	result, err := deps.Crawler.CrawlSite(deps.Ctx, siteURL, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error scraping: %s\n", siteqa.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Saved %d pages (%d bytes", result.Saved, result.Bytes)
	if result.Tokens > 0 {
		fmt.Fprintf(deps.Stdout, ", ~%d tokens", result.Tokens)
	}
	fmt.Fprintln(deps.Stdout, ")")
	if result.Failed > 0 {
		fmt.Fprintf(deps.Stdout, "Failed %d pages\n", result.Failed)
	}

	if !c.Index || deps.Indexer == nil || len(result.Documents) == 0 {
		return nil
	}

	stats, err := deps.Indexer.IndexDocuments(deps.Ctx, result.Documents)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error indexing: %s\n", siteqa.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Indexed %d chunks from %d pages\n", stats.Chunks, stats.Documents)
	return nil
}
