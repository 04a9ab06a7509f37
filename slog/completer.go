package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
)

// Ensure LoggingCompleter implements siteqa.Completer.
var _ siteqa.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with logging. Prompt and reply text are
// not logged, only their sizes.
type LoggingCompleter struct {
	next   siteqa.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next siteqa.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer.
func (c *LoggingCompleter) Complete(ctx context.Context, prompt string, opts siteqa.CompletionOptions) (reply string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("completion",
			"model", c.next.Model(),
			"prompt_chars", len(prompt),
			"reply_chars", len(reply),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, prompt, opts)
}

// Model delegates to the wrapped completer.
func (c *LoggingCompleter) Model() string { return c.next.Model() }
