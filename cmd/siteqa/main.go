package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/anthropic"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/gemini"
	"github.com/fwojciec/siteqa/goquery"
	"github.com/fwojciec/siteqa/hashing"
	"github.com/fwojciec/siteqa/htmltomarkdown"
	sitehttp "github.com/fwojciec/siteqa/http"
	"github.com/fwojciec/siteqa/inmem"
	"github.com/fwojciec/siteqa/rag"
	"github.com/fwojciec/siteqa/readability"
	siteslog "github.com/fwojciec/siteqa/slog"
	"github.com/fwojciec/siteqa/sqlite"
	"github.com/fwojciec/siteqa/toml"
	"github.com/fwojciec/siteqa/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// tokenizerModel is the local tokenizer used to report token counts.
const tokenizerModel = "gemini-2.5-flash"

// Main represents the program.
type Main struct {
	// Getenv looks up secrets such as API keys. Defaults to os.Getenv.
	Getenv func(string) string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Getenv: os.Getenv}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("siteqa"),
		kong.Description("Answer questions about an organization from its website."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'siteqa --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg, err := toml.LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set SITEQA_CONFIG or --config to a valid TOML file")
		return err
	}
	logger := newLogger(stderr, cli.LogLevel)
	deps.Config = cfg
	deps.Logger = logger

	dbPath := cli.DB
	if dbPath == "" {
		dbPath = defaultDBPath()
	}
	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SITEQA_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	defer m.Close()

	deps.Documents = sqlite.NewDocumentService(m.DB)

	switch cmd {
	case "scrape":
		deps.Crawler = m.newCrawler(cfg, deps.Documents, logger)
		if cli.Scrape.Index {
			if err := m.wirePipeline(ctx, deps); err != nil {
				return err
			}
		}
	case "index", "ask", "serve", "health":
		if err := m.wirePipeline(ctx, deps); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wirePipeline builds the question answering pipeline over the open
// database and binds it into deps.
func (m *Main) wirePipeline(ctx context.Context, deps *Dependencies) error {
	cfg, logger := deps.Config, deps.Logger

	embedder, err := m.newEmbedder(ctx, cfg)
	if err != nil {
		printKeyHint(deps.Stderr, err, "GEMINI_API_KEY")
		return err
	}
	completer, err := m.newCompleter(ctx, cfg)
	if err != nil {
		printKeyHint(deps.Stderr, err, completerKeyName(cfg))
		return err
	}

	index := inmem.NewIndex(siteqa.IndexMeta{
		Collection: cfg.Index.Collection,
		Model:      embedder.Model(),
		Dimensions: embedder.Dimensions(),
	}, sqlite.NewIndexStore(m.DB), logger)

	var counter siteqa.TokenCounter
	if deps.Crawler != nil && deps.Crawler.TokenCounter != nil {
		counter = deps.Crawler.TokenCounter
	}

	pipeline, err := rag.NewPipeline(*cfg, deps.Documents, index,
		siteslog.NewLoggingEmbedder(embedder, logger),
		siteslog.NewLoggingCompleter(completer, logger),
		counter, logger)
	if err != nil {
		return err
	}

	deps.Answerer = siteslog.NewLoggingAnswerer(pipeline, logger)
	deps.Admin = siteslog.NewLoggingIndexAdmin(pipeline, logger)
	deps.Indexer = pipeline
	return nil
}

func (m *Main) newEmbedder(ctx context.Context, cfg *siteqa.Config) (siteqa.Embedder, error) {
	if cfg.Embedding.Provider == "hashing" {
		return hashing.NewEmbedder(cfg.Embedding.Dimensions)
	}
	client, err := gemini.NewClient(ctx, m.Getenv("GEMINI_API_KEY"), "")
	if err != nil {
		return nil, err
	}
	return gemini.NewEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimensions)
}

func (m *Main) newCompleter(ctx context.Context, cfg *siteqa.Config) (siteqa.Completer, error) {
	if cfg.LLM.Provider == "anthropic" {
		return anthropic.NewCompleter(m.Getenv("ANTHROPIC_API_KEY"), cfg.LLM.Model, "")
	}
	client, err := gemini.NewClient(ctx, m.Getenv("GEMINI_API_KEY"), "")
	if err != nil {
		return nil, err
	}
	return gemini.NewCompleter(client, cfg.LLM.Model), nil
}

func (m *Main) newCrawler(cfg *siteqa.Config, docs siteqa.DocumentService, logger *slog.Logger) *crawl.Crawler {
	c := &crawl.Crawler{
		Sitemaps:    siteslog.NewLoggingSitemapService(sitehttp.NewSitemapService(nil), logger),
		Fetcher:     siteslog.NewLoggingFetcher(sitehttp.NewFetcher(), logger),
		Extractor:   trafilatura.NewExtractor(),
		Fallback:    readability.NewExtractor(),
		Converter:   htmltomarkdown.NewConverter(),
		Documents:   docs,
		Links:       goquery.NewLinkExtractor(),
		RateLimiter: crawl.NewDomainLimiter(cfg.Site.RequestsPerSecond),
		MaxPages:    cfg.Site.MaxPages,
		Concurrency: cfg.Site.Concurrency,
		RetryDelays: cfg.Retry.Durations(),
	}
	if counter, err := gemini.NewTokenCounter(tokenizerModel); err == nil {
		c.TokenCounter = counter
	} else {
		logger.Warn("token counting disabled", "err", err)
	}
	return c
}

func completerKeyName(cfg *siteqa.Config) string {
	if cfg.LLM.Provider == "anthropic" {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func printKeyHint(w io.Writer, err error, key string) {
	if siteqa.ErrorCode(err) == siteqa.ECONFIG {
		fmt.Fprintf(w, "Hint: Check that %s is set and valid\n", key)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "siteqa.db"
	}
	dir := filepath.Join(home, ".siteqa")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "siteqa.db")
}
