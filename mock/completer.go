package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Completer = (*Completer)(nil)

// Completer is a mock implementation of siteqa.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, prompt string, opts siteqa.CompletionOptions) (string, error)
	ModelFn    func() string
}

func (c *Completer) Complete(ctx context.Context, prompt string, opts siteqa.CompletionOptions) (string, error) {
	return c.CompleteFn(ctx, prompt, opts)
}

func (c *Completer) Model() string {
	return c.ModelFn()
}
