package rag

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/fwojciec/siteqa"
)

// Retriever selects evidence for a question from the vector index.
type Retriever struct {
	embedder siteqa.Embedder
	index    siteqa.VectorIndex

	// DedupThreshold is the word-set Jaccard similarity at or above which
	// two passages from the same source URL are treated as near-identical.
	DedupThreshold float64
}

// NewRetriever returns a Retriever using the default dedup threshold.
func NewRetriever(embedder siteqa.Embedder, index siteqa.VectorIndex) *Retriever {
	return &Retriever{
		embedder:       embedder,
		index:          index,
		DedupThreshold: siteqa.DefaultDedupThreshold,
	}
}

// Retrieve embeds the question, searches the index for the topK nearest
// passages, drops those scoring below threshold and removes near-duplicate
// passages of the same source, keeping the highest-scoring one. The result
// is ordered by descending score. No evidence is a valid result.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int, threshold float64) ([]siteqa.Evidence, error) {
	if strings.TrimSpace(question) == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "question required")
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, err
	}

	// Search results are already ordered, so the first passage kept for a
	// group of duplicates is the highest-scoring one.
	evidence := make([]siteqa.Evidence, 0, len(hits))
	var kept []wordSet
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		words := newWordSet(h.Entry.Content)
		duplicate := false
		for i, ev := range evidence {
			if ev.SourceURL == h.Entry.SourceURL && jaccard(kept[i], words) >= r.DedupThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		evidence = append(evidence, siteqa.Evidence{
			Text:      h.Entry.Content,
			Score:     h.Score,
			SourceURL: h.Entry.SourceURL,
		})
		kept = append(kept, words)
	}

	slices.SortStableFunc(evidence, func(a, b siteqa.Evidence) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return evidence, nil
}

type wordSet map[string]struct{}

func newWordSet(text string) wordSet {
	set := make(wordSet)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard returns |a∩b| / |a∪b|. Two empty sets are identical.
func jaccard(a, b wordSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
