package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fwojciec/siteqa"
	main "github.com/fwojciec/siteqa/cmd/siteqa"
	"github.com/fwojciec/siteqa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerWith(res *siteqa.AnswerResult, err error) *mock.Answerer {
	return &mock.Answerer{
		AnswerQuestionFn: func(context.Context, string, bool) (*siteqa.AnswerResult, error) {
			return res, err
		},
	}
}

func TestAskCmd_Run(t *testing.T) {
	t.Parallel()

	grounded := &siteqa.AnswerResult{
		Answer:   "We are open 8am to 5pm on weekdays.",
		Grounded: true,
		Evidence: []siteqa.Evidence{
			{Text: "Hours: 8am-5pm", Score: 0.81, SourceURL: "https://example.org/contact"},
			{Text: "Weekdays only", Score: 0.64, SourceURL: "https://example.org/contact"},
			{Text: "Visit us", Score: 0.42, SourceURL: "https://example.org/"},
		},
	}

	t.Run("prints answer and distinct sources", func(t *testing.T) {
		t.Parallel()

		var gotQuestion string
		answerer := &mock.Answerer{
			AnswerQuestionFn: func(_ context.Context, question string, _ bool) (*siteqa.AnswerResult, error) {
				gotQuestion = question
				return grounded, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Answerer: answerer}

		err := (&main.AskCmd{Question: "When are you open?"}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "When are you open?", gotQuestion)
		out := stdout.String()
		assert.Contains(t, out, "We are open 8am to 5pm on weekdays.")
		assert.Contains(t, out, "Sources:\n  - https://example.org/contact\n  - https://example.org/\n")
	})

	t.Run("omits sources for ungrounded answers", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Answerer: answerWith(&siteqa.AnswerResult{
				Answer:   "I don't have information about that.",
				Evidence: grounded.Evidence,
			}, nil),
		}

		err := (&main.AskCmd{Question: "Who is the mayor?"}).Run(deps)

		require.NoError(t, err)
		assert.NotContains(t, stdout.String(), "Sources:")
	})

	t.Run("prints JSON", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Answerer: answerWith(grounded, nil)}

		err := (&main.AskCmd{Question: "q", JSON: true}).Run(deps)

		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &body))
		assert.Equal(t, grounded.Answer, body["answer"])
		assert.Equal(t, true, body["grounded"])
		assert.Len(t, body["evidence"], 3)
	})

	t.Run("prints debug trace", func(t *testing.T) {
		t.Parallel()

		var gotDebug bool
		answerer := &mock.Answerer{
			AnswerQuestionFn: func(_ context.Context, _ string, debug bool) (*siteqa.AnswerResult, error) {
				gotDebug = debug
				res := *grounded
				res.Debug = &siteqa.Trace{
					Evidence: grounded.Evidence,
					Prompt:   "<context>...</context>",
					Model:    "test-llm",
				}
				return &res, nil
			},
		}
		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{Ctx: context.Background(), Stdout: stdout, Stderr: &bytes.Buffer{}, Answerer: answerer}

		err := (&main.AskCmd{Question: "q", Debug: true}).Run(deps)

		require.NoError(t, err)
		assert.True(t, gotDebug)
		assert.Contains(t, stdout.String(), "debug (model test-llm)")
		assert.Contains(t, stdout.String(), "1. [0.810] https://example.org/contact")
		assert.Contains(t, stdout.String(), "<context>...</context>")
	})

	t.Run("reports errors", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   &bytes.Buffer{},
			Stderr:   stderr,
			Answerer: answerWith(nil, siteqa.Errorf(siteqa.EUNAVAILABLE, "language model unavailable")),
		}

		err := (&main.AskCmd{Question: "q"}).Run(deps)

		assert.Equal(t, siteqa.EUNAVAILABLE, siteqa.ErrorCode(err))
		assert.Contains(t, stderr.String(), "language model unavailable")
	})
}
