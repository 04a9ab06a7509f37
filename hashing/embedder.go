// Package hashing provides a deterministic, offline embedder based on
// feature hashing. It needs no network and no model download, which makes
// it suitable for tests and for sites where an embedding API is unavailable.
package hashing

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteqa"
)

// Model is the identifier reported by Embedder. Bump it whenever the
// feature extraction changes, so persisted indexes are rebuilt.
const Model = "hashing-v1"

var _ siteqa.Embedder = (*Embedder)(nil)

// Embedder maps text to vectors by hashing word unigrams, word bigrams and
// character trigrams into signed buckets. Vectors are L2-normalized.
type Embedder struct {
	dims int
}

// NewEmbedder returns an Embedder producing vectors of length dims.
func NewEmbedder(dims int) (*Embedder, error) {
	if dims <= 0 {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "embedding dimensions must be positive, got %d", dims)
	}
	return &Embedder{dims: dims}, nil
}

// Model implements siteqa.Embedder.
func (e *Embedder) Model() string { return Model }

// Dimensions implements siteqa.Embedder.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed implements siteqa.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch implements siteqa.Embedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	acc := make([]float64, e.dims)
	words := tokenize(text)

	for i, w := range words {
		e.add(acc, "w:"+w, 1)
		if i > 0 {
			e.add(acc, "b:"+words[i-1]+" "+w, 0.5)
		}
		padded := []rune("_" + w + "_")
		for j := 0; j+3 <= len(padded); j++ {
			e.add(acc, "t:"+string(padded[j:j+3]), 0.25)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, e.dims)
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

func (e *Embedder) add(acc []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(e.dims)
	if h>>63 == 1 {
		weight = -weight
	}
	acc[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
