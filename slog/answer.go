package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
)

var (
	_ siteqa.Answerer   = (*LoggingAnswerer)(nil)
	_ siteqa.IndexAdmin = (*LoggingIndexAdmin)(nil)
)

// LoggingAnswerer wraps an Answerer with logging.
type LoggingAnswerer struct {
	next   siteqa.Answerer
	logger *slog.Logger
}

// NewLoggingAnswerer creates a new LoggingAnswerer.
func NewLoggingAnswerer(next siteqa.Answerer, logger *slog.Logger) *LoggingAnswerer {
	return &LoggingAnswerer{next: next, logger: logger}
}

// AnswerQuestion delegates to the wrapped answerer and logs the outcome.
func (a *LoggingAnswerer) AnswerQuestion(ctx context.Context, question string, debug bool) (res *siteqa.AnswerResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"question_chars", len(question),
			"debug", debug,
			"duration", time.Since(begin),
		}
		if res != nil {
			attrs = append(attrs, "grounded", res.Grounded, "evidence", len(res.Evidence))
		}
		if err != nil {
			attrs = append(attrs, "code", siteqa.ErrorCode(err), "err", err)
			a.logger.Warn("answer question", attrs...)
			return
		}
		a.logger.Info("answer question", attrs...)
	}(time.Now())
	return a.next.AnswerQuestion(ctx, question, debug)
}

// LoggingIndexAdmin wraps an IndexAdmin with logging.
type LoggingIndexAdmin struct {
	next   siteqa.IndexAdmin
	logger *slog.Logger
}

// NewLoggingIndexAdmin creates a new LoggingIndexAdmin.
func NewLoggingIndexAdmin(next siteqa.IndexAdmin, logger *slog.Logger) *LoggingIndexAdmin {
	return &LoggingIndexAdmin{next: next, logger: logger}
}

// RebuildIndex delegates to the wrapped admin and logs the result.
func (a *LoggingIndexAdmin) RebuildIndex(ctx context.Context) (res *siteqa.RebuildResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin), "err", err}
		if res != nil {
			attrs = append(attrs,
				"documents", res.Documents,
				"skipped", res.Skipped,
				"chunks", res.Chunks,
				"tokens", res.Tokens,
			)
		}
		a.logger.Info("rebuild index", attrs...)
	}(time.Now())
	return a.next.RebuildIndex(ctx)
}

// Health delegates to the wrapped admin and warns when the index is degraded.
func (a *LoggingIndexAdmin) Health(ctx context.Context) *siteqa.Health {
	h := a.next.Health(ctx)
	if h.Status != siteqa.HealthOK {
		a.logger.Warn("health degraded",
			"state", h.State,
			"code", h.ErrorCode,
			"err", h.Error,
		)
	}
	return h
}
