package gemini

import (
	"context"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
)

var _ siteqa.Embedder = (*Embedder)(nil)

// Embedder implements siteqa.Embedder using the Gemini embedding models.
type Embedder struct {
	client *genai.Client
	model  string
	dims   int
}

// NewEmbedder creates an Embedder that requests vectors of dims dimensions.
func NewEmbedder(client *genai.Client, model string, dims int) (*Embedder, error) {
	if model == "" {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "embedding model required")
	}
	if dims <= 0 {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "embedding dimensions must be positive, got %d", dims)
	}
	return &Embedder{client: client, model: model, dims: dims}, nil
}

// Model returns the embedding model identifier.
func (e *Embedder) Model() string { return e.model }

// Dimensions returns the vector length.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request. The result has one vector per
// text, in order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	dims := int32(e.dims)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, classifyError(ctx, "embed", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, siteqa.Errorf(siteqa.EMALFORMED, "gemini returned %d embeddings for %d texts", got, len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) != e.dims {
			return nil, siteqa.Errorf(siteqa.EMALFORMED, "gemini embedding %d has wrong dimensionality, expected %d", i, e.dims)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}
