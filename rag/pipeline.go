package rag

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteqa"
)

// Compile-time interface verification.
var (
	_ siteqa.Answerer   = (*Pipeline)(nil)
	_ siteqa.IndexAdmin = (*Pipeline)(nil)
)

// Pipeline answers questions from the vector index and owns the index
// lifecycle. The index is loaded lazily by the first question. Rebuilds are
// mutually exclusive; questions keep being served from the previous
// snapshot while a rebuild runs.
type Pipeline struct {
	Documents   siteqa.DocumentService
	Index       siteqa.VectorIndex
	Indexer     *Indexer
	Retriever   *Retriever
	Synthesizer *Synthesizer

	TopK                int
	SimilarityThreshold float64

	// RetryDelays and Timeout apply to each retrieval and completion step.
	RetryDelays []time.Duration
	Timeout     time.Duration
	Logger      *slog.Logger

	loadMu     sync.Mutex
	loaded     atomic.Bool
	rebuildMu  sync.Mutex
	rebuilding atomic.Bool
}

// AnswerQuestion implements siteqa.Answerer.
func (p *Pipeline) AnswerQuestion(ctx context.Context, question string, debug bool) (*siteqa.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "question required")
	}

	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	evidence, err := Retry(ctx, p.retryDelays(), p.Timeout, p.onRetry("retrieve"),
		func(ctx context.Context) ([]siteqa.Evidence, error) {
			return p.Retriever.Retrieve(ctx, question, p.topK(), p.SimilarityThreshold)
		})
	if err != nil {
		return nil, err
	}

	return Retry(ctx, p.retryDelays(), p.Timeout, p.onRetry("synthesize"),
		func(ctx context.Context) (*siteqa.AnswerResult, error) {
			return p.Synthesizer.Synthesize(ctx, question, evidence, debug)
		})
}

// RebuildIndex implements siteqa.IndexAdmin. It re-chunks and re-embeds all
// stored documents and swaps the result in atomically.
func (p *Pipeline) RebuildIndex(ctx context.Context) (*siteqa.RebuildResult, error) {
	if !p.rebuildMu.TryLock() {
		return nil, siteqa.Errorf(siteqa.ECONFLICT, "index rebuild already in progress")
	}
	defer p.rebuildMu.Unlock()

	p.rebuilding.Store(true)
	defer p.rebuilding.Store(false)

	begin := time.Now()
	docs, err := p.Documents.FindDocuments(ctx, siteqa.DocumentFilter{SortBy: siteqa.SortBySourceURL})
	if err != nil {
		return nil, err
	}

	entries, stats, err := p.Indexer.Build(ctx, docs)
	if err != nil {
		return nil, err
	}

	if err := p.Index.Rebuild(ctx, entries); err != nil {
		return nil, err
	}
	p.loaded.Store(true)

	return &siteqa.RebuildResult{
		Documents: stats.Documents,
		Skipped:   stats.Skipped,
		Chunks:    stats.Chunks,
		Tokens:    stats.Tokens,
		Duration:  time.Since(begin),
	}, nil
}

// IndexDocuments chunks and embeds the given documents and replaces their
// entries in the index. Entries left from an earlier version of a document
// are removed, including every entry of a document now too short to index.
// Returns ECONFLICT if a rebuild is in progress.
func (p *Pipeline) IndexDocuments(ctx context.Context, docs []*siteqa.Document) (*siteqa.RebuildResult, error) {
	if !p.rebuildMu.TryLock() {
		return nil, siteqa.Errorf(siteqa.ECONFLICT, "index rebuild in progress")
	}
	defer p.rebuildMu.Unlock()

	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	begin := time.Now()
	entries, stats, err := p.Indexer.Build(ctx, docs)
	if err != nil {
		return nil, err
	}

	sources := make([]string, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, doc.SourceURL)
	}
	if err := p.Index.ReplaceSources(ctx, sources, entries); err != nil {
		return nil, err
	}

	return &siteqa.RebuildResult{
		Documents: stats.Documents,
		Skipped:   stats.Skipped,
		Chunks:    stats.Chunks,
		Tokens:    stats.Tokens,
		Duration:  time.Since(begin),
	}, nil
}

// Health implements siteqa.IndexAdmin. The persisted index is loaded first so
// a fresh process reports what it would serve. A failed load reports a
// degraded status with the error code.
func (p *Pipeline) Health(ctx context.Context) *siteqa.Health {
	h := &siteqa.Health{Status: siteqa.HealthOK}
	if err := p.ensureLoaded(ctx); err != nil {
		p.logger().Error("index unavailable", "err", err)
		h.Status = siteqa.HealthDegraded
		h.ErrorCode = siteqa.ErrorCode(err)
		h.Error = siteqa.ErrorMessage(err)
	}

	h.State = p.State()
	h.IndexSize = p.Index.Len()
	h.Model = p.Index.Model()
	if p.Synthesizer != nil {
		h.CompletionModel = p.Synthesizer.Model()
	}
	return h
}

// State returns the current lifecycle state of the index.
func (p *Pipeline) State() siteqa.IndexState {
	switch {
	case p.rebuilding.Load():
		return siteqa.IndexRebuilding
	case p.loaded.Load():
		return siteqa.IndexReady
	default:
		return siteqa.IndexUninitialized
	}
}

// ensureLoaded loads the persisted index on first use. Concurrent callers
// wait for a single load. A failed load is retried by the next caller.
func (p *Pipeline) ensureLoaded(ctx context.Context) error {
	if p.loaded.Load() {
		return nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	if p.loaded.Load() {
		return nil
	}
	if err := p.Index.Load(ctx); err != nil {
		return err
	}
	p.loaded.Store(true)
	p.logger().Info("index ready", "entries", p.Index.Len(), "model", p.Index.Model())
	return nil
}

func (p *Pipeline) onRetry(step string) RetryFunc {
	return func(attempt int, delay time.Duration, err error) {
		p.logger().Warn("retrying upstream call", "step", step, "attempt", attempt, "delay", delay, "err", err)
	}
}

func (p *Pipeline) retryDelays() []time.Duration {
	if p.RetryDelays == nil {
		return DefaultRetryDelays()
	}
	return p.RetryDelays
}

func (p *Pipeline) topK() int {
	if p.TopK <= 0 {
		return siteqa.DefaultTopK
	}
	return p.TopK
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// NewPipeline wires a Pipeline from configuration. The index must have been
// created for the embedder's model and dimensionality.
// Returns ECONFIG if cfg is invalid or the index does not match the embedder.
func NewPipeline(cfg siteqa.Config, docs siteqa.DocumentService, index siteqa.VectorIndex,
	embedder siteqa.Embedder, completer siteqa.Completer, counter siteqa.TokenCounter, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if index.Model() != embedder.Model() || index.Dimensions() != embedder.Dimensions() {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "index expects %s (%d dimensions), embedder is %s (%d dimensions)",
			index.Model(), index.Dimensions(), embedder.Model(), embedder.Dimensions())
	}

	chunker, err := siteqa.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	delays := cfg.Retry.Durations()
	retriever := NewRetriever(embedder, index)
	retriever.DedupThreshold = cfg.Retrieval.DedupThreshold

	return &Pipeline{
		Documents: docs,
		Index:     index,
		Indexer: &Indexer{
			Chunker:          chunker,
			Embedder:         embedder,
			TokenCounter:     counter,
			MinDocumentChars: cfg.Chunking.MinDocumentChars,
			BatchSize:        cfg.Embedding.BatchSize,
			Concurrency:      cfg.Embedding.Concurrency,
			RetryDelays:      delays,
			Timeout:          cfg.LLM.Timeout.Duration(),
			Logger:           logger,
		},
		Retriever: retriever,
		Synthesizer: NewSynthesizer(completer, SynthesizerConfig{
			Organization:       cfg.Site.Organization,
			Temperature:        cfg.LLM.Temperature,
			MaxTokens:          cfg.LLM.MaxTokens,
			MaxContextChars:    cfg.LLM.MaxContextChars,
			NoAnswerPhrases:    cfg.LLM.NoAnswerPhrases,
			InsufficientAnswer: cfg.LLM.InsufficientAnswer,
		}),
		TopK:                cfg.Retrieval.TopK,
		SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
		RetryDelays:         delays,
		Timeout:             cfg.LLM.Timeout.Duration(),
		Logger:              logger,
	}, nil
}
