package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/mock"
	siteslog "github.com/fwojciec/siteqa/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingCompleter_Complete(t *testing.T) {
	t.Parallel()

	t.Run("logs sizes without content", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Completer{
			CompleteFn: func(context.Context, string, siteqa.CompletionOptions) (string, error) {
				return "secret reply", nil
			},
			ModelFn: func() string { return "test-llm" },
		}
		c := siteslog.NewLoggingCompleter(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		reply, err := c.Complete(context.Background(), "private prompt", siteqa.CompletionOptions{})

		require.NoError(t, err)
		assert.Equal(t, "secret reply", reply)
		output := buf.String()
		assert.Contains(t, output, "completion")
		assert.Contains(t, output, "model=test-llm")
		assert.Contains(t, output, "prompt_chars=14")
		assert.Contains(t, output, "reply_chars=12")
		assert.NotContains(t, output, "private prompt")
		assert.NotContains(t, output, "secret reply")
	})

	t.Run("logs error code", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Completer{
			CompleteFn: func(context.Context, string, siteqa.CompletionOptions) (string, error) {
				return "", siteqa.Errorf(siteqa.EUNAVAILABLE, "overloaded")
			},
			ModelFn: func() string { return "test-llm" },
		}
		c := siteslog.NewLoggingCompleter(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		_, err := c.Complete(context.Background(), "q", siteqa.CompletionOptions{})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "overloaded")
		assert.Equal(t, "test-llm", c.Model())
	})
}
