package siteqa

import "context"

// Embedder maps text to fixed-dimension dense vectors. The same Embedder is
// used for chunks at build time and for questions at query time, so the
// vectors are comparable under cosine similarity.
//
// Identical text embedded with the same model must yield identical vectors
// within floating-point tolerance. Upstream outages are reported as
// EUNAVAILABLE and throttling as ERATELIMITED.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the stable identifier of the embedding model.
	Model() string

	// Dimensions returns the length of the vectors produced.
	Dimensions() int
}
