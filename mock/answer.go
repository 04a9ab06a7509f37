package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Answerer = (*Answerer)(nil)

// Answerer is a mock implementation of siteqa.Answerer.
type Answerer struct {
	AnswerQuestionFn func(ctx context.Context, question string, debug bool) (*siteqa.AnswerResult, error)
}

func (a *Answerer) AnswerQuestion(ctx context.Context, question string, debug bool) (*siteqa.AnswerResult, error) {
	return a.AnswerQuestionFn(ctx, question, debug)
}

var _ siteqa.IndexAdmin = (*IndexAdmin)(nil)

// IndexAdmin is a mock implementation of siteqa.IndexAdmin.
type IndexAdmin struct {
	RebuildIndexFn func(ctx context.Context) (*siteqa.RebuildResult, error)
	HealthFn       func(ctx context.Context) *siteqa.Health
}

func (a *IndexAdmin) RebuildIndex(ctx context.Context) (*siteqa.RebuildResult, error) {
	return a.RebuildIndexFn(ctx)
}

func (a *IndexAdmin) Health(ctx context.Context) *siteqa.Health {
	return a.HealthFn(ctx)
}
