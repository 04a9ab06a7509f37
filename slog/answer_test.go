package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/mock"
	siteslog "github.com/fwojciec/siteqa/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingAnswerer_AnswerQuestion(t *testing.T) {
	t.Parallel()

	t.Run("logs grounding and evidence count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Answerer{
			AnswerQuestionFn: func(context.Context, string, bool) (*siteqa.AnswerResult, error) {
				return &siteqa.AnswerResult{
					Answer:   "We open at 9.",
					Grounded: true,
					Evidence: []siteqa.Evidence{{Text: "9am", Score: 0.7, SourceURL: "https://example.org"}},
				}, nil
			},
		}
		a := siteslog.NewLoggingAnswerer(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		res, err := a.AnswerQuestion(context.Background(), "When?", false)

		require.NoError(t, err)
		assert.True(t, res.Grounded)
		output := buf.String()
		assert.Contains(t, output, "level=INFO")
		assert.Contains(t, output, "answer question")
		assert.Contains(t, output, "question_chars=5")
		assert.Contains(t, output, "grounded=true")
		assert.Contains(t, output, "evidence=1")
	})

	t.Run("logs failures at warn with error code", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Answerer{
			AnswerQuestionFn: func(context.Context, string, bool) (*siteqa.AnswerResult, error) {
				return nil, siteqa.Errorf(siteqa.EUNAVAILABLE, "model down")
			},
		}
		a := siteslog.NewLoggingAnswerer(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		_, err := a.AnswerQuestion(context.Background(), "When?", true)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "code=unavailable")
	})
}

func TestLoggingIndexAdmin(t *testing.T) {
	t.Parallel()

	t.Run("logs rebuild stats", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.IndexAdmin{
			RebuildIndexFn: func(context.Context) (*siteqa.RebuildResult, error) {
				return &siteqa.RebuildResult{Documents: 4, Skipped: 1, Chunks: 12, Duration: time.Second}, nil
			},
		}
		a := siteslog.NewLoggingIndexAdmin(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		res, err := a.RebuildIndex(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 12, res.Chunks)
		output := buf.String()
		assert.Contains(t, output, "rebuild index")
		assert.Contains(t, output, "documents=4")
		assert.Contains(t, output, "chunks=12")
	})

	t.Run("delegates health", func(t *testing.T) {
		t.Parallel()

		inner := &mock.IndexAdmin{
			HealthFn: func(context.Context) *siteqa.Health {
				return &siteqa.Health{Status: siteqa.HealthOK, State: siteqa.IndexReady, IndexSize: 3}
			},
		}
		a := siteslog.NewLoggingIndexAdmin(inner, slog.New(slog.DiscardHandler))

		h := a.Health(context.Background())
		assert.Equal(t, 3, h.IndexSize)
	})

	t.Run("warns about a degraded index", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.IndexAdmin{
			HealthFn: func(context.Context) *siteqa.Health {
				return &siteqa.Health{Status: siteqa.HealthDegraded, State: siteqa.IndexUninitialized, ErrorCode: siteqa.ECORRUPT, Error: "checksum mismatch"}
			},
		}
		a := siteslog.NewLoggingIndexAdmin(inner, slog.New(slog.NewTextHandler(&buf, nil)))

		h := a.Health(context.Background())

		assert.Equal(t, siteqa.HealthDegraded, h.Status)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "health degraded")
		assert.Contains(t, output, "code=ECORRUPT")
	})
}
