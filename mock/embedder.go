package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of siteqa.Embedder.
type Embedder struct {
	EmbedFn      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
	ModelFn      func() string
	DimensionsFn func() int
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedBatchFn(ctx, texts)
}

func (e *Embedder) Model() string {
	return e.ModelFn()
}

func (e *Embedder) Dimensions() int {
	return e.DimensionsFn()
}
