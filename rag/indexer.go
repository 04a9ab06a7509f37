// Package rag composes chunking, embedding, retrieval and answer synthesis
// into a retrieval-augmented question answering pipeline.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/siteqa"
	"golang.org/x/sync/errgroup"
)

// Default indexing settings.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
)

// Indexer turns documents into index entries: it chunks each document and
// embeds the chunks in batches.
type Indexer struct {
	Chunker      *siteqa.Chunker
	Embedder     siteqa.Embedder
	TokenCounter siteqa.TokenCounter // optional

	// MinDocumentChars skips documents whose trimmed text, title included,
	// is shorter.
	MinDocumentChars int
	BatchSize        int
	Concurrency      int
	RetryDelays      []time.Duration
	Timeout          time.Duration
	Logger           *slog.Logger
}

// BuildStats summarizes a Build.
type BuildStats struct {
	Documents int
	Skipped   int
	Chunks    int
	Tokens    int
}

// Build chunks and embeds docs. Entries are returned in document order, then
// chunk order. Embedding failures abort the build; nothing is written.
func (ix *Indexer) Build(ctx context.Context, docs []*siteqa.Document) ([]*siteqa.IndexEntry, *BuildStats, error) {
	stats := &BuildStats{}
	var chunks []*siteqa.Chunk
	for _, doc := range docs {
		if utf8.RuneCountInString(strings.TrimSpace(doc.Text())) < ix.MinDocumentChars {
			stats.Skipped++
			continue
		}
		docChunks := ix.Chunker.Chunk(doc)
		if len(docChunks) == 0 {
			stats.Skipped++
			continue
		}
		stats.Documents++
		chunks = append(chunks, docChunks...)

		if ix.TokenCounter != nil {
			if tokens, err := ix.TokenCounter.CountTokens(ctx, doc.Text()); err == nil {
				stats.Tokens += tokens
			}
		}
	}
	stats.Chunks = len(chunks)

	vectors, err := ix.embed(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]*siteqa.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = &siteqa.IndexEntry{
			ChunkID:   c.ID,
			SourceURL: c.SourceURL,
			Content:   c.Content,
			Embedding: vectors[i],
		}
	}
	return entries, stats, nil
}

func (ix *Indexer) embed(ctx context.Context, chunks []*siteqa.Chunk) ([][]float32, error) {
	batchSize := ix.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	concurrency := ix.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	delays := ix.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	logger := ix.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dims := ix.Embedder.Dimensions()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}

		g.Go(func() error {
			onRetry := func(attempt int, delay time.Duration, err error) {
				logger.Warn("retrying embedding batch", "batch", start/batchSize, "attempt", attempt, "delay", delay, "err", err)
			}
			batch, err := Retry(gctx, delays, ix.Timeout, onRetry, func(ctx context.Context) ([][]float32, error) {
				return ix.Embedder.EmbedBatch(ctx, texts)
			})
			if err != nil {
				return fmt.Errorf("embedding chunks %d-%d: %w", start, end, err)
			}
			if len(batch) != len(texts) {
				return siteqa.Errorf(siteqa.EMALFORMED, "embedder returned %d vectors for %d texts", len(batch), len(texts))
			}
			for i, v := range batch {
				if len(v) != dims {
					return siteqa.Errorf(siteqa.EMALFORMED, "embedder returned %d dimensions, expected %d", len(v), dims)
				}
				vectors[start+i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
