package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
)

// DocumentIndexer adds freshly scraped documents to the index.
type DocumentIndexer interface {
	IndexDocuments(ctx context.Context, docs []*siteqa.Document) (*siteqa.RebuildResult, error)
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Config    *siteqa.Config
	Logger    *slog.Logger
	Documents siteqa.DocumentService
	Crawler   *crawl.Crawler
	Answerer  siteqa.Answerer
	Admin     siteqa.IndexAdmin
	Indexer   DocumentIndexer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config   string `type:"path" env:"SITEQA_CONFIG" help:"Path to TOML config file"`
	DB       string `type:"path" env:"SITEQA_DB" help:"Path to SQLite database (default ~/.siteqa/siteqa.db)"`
	LogLevel string `default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`

	Scrape ScrapeCmd `cmd:"" help:"Scrape the organization's website"`
	Index  IndexCmd  `cmd:"" help:"Rebuild the vector index from stored pages"`
	Ask    AskCmd    `cmd:"" help:"Ask a question about the organization"`
	Serve  ServeCmd  `cmd:"" help:"Serve the question answering API"`
	Health HealthCmd `cmd:"" help:"Show index status"`
	Docs   DocsCmd   `cmd:"" help:"List scraped pages"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	URL      string   `arg:"" optional:"" help:"Website URL (defaults to site.url from config)"`
	MaxPages int      `short:"n" help:"Maximum pages to scrape (defaults to site.max_pages)"`
	Index    bool     `short:"i" help:"Index scraped pages after scraping"`
	Filter   []string `short:"F" name:"filter" help:"Only scrape URLs matching regex (repeatable)"`
}

// IndexCmd is the "index" subcommand.
type IndexCmd struct{}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask"`
	Debug    bool   `help:"Show retrieved passages and the prompt"`
	JSON     bool   `name:"json" help:"Print the result as JSON"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:"127.0.0.1:8080" help:"Address to listen on"`
}

// HealthCmd is the "health" subcommand.
type HealthCmd struct{}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Full   bool   `help:"Show full page content"`
	Export string `type:"path" placeholder:"DIR" help:"Write pages as Markdown files to DIR"`
}
