package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging. A site with no
// sitemap pages is logged as a warning because the crawl then falls back to
// following links from the home page.
type LoggingSitemapService struct {
	next   siteqa.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next siteqa.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the pages found.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *siteqa.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		msg := "sitemap pages discovered"
		switch {
		case err != nil:
			level, msg = slog.LevelError, "sitemap discovery failed"
		case len(urls) == 0:
			level, msg = slog.LevelWarn, "no sitemap pages found"
		}

		attrs := []any{"site", baseURL, "pages", len(urls), "duration", time.Since(begin)}
		if f := filter.String(); f != "" {
			attrs = append(attrs, "filter", f)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Log(ctx, level, msg, attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
