// Package readability provides the fallback content extractor, built on
// go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/siteqa"
	"github.com/go-shiori/go-readability"
)

var _ siteqa.Extractor = (*Extractor)(nil)

// Extractor extracts the main article of a page. It is used when the
// primary extractor finds nothing.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. The article
// excerpt becomes the description.
func (e *Extractor) Extract(rawHTML string) (*siteqa.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EMALFORMED, "readability: %v", err)
	}

	return &siteqa.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		Description: strings.TrimSpace(article.Excerpt),
		ContentHTML: article.Content,
	}, nil
}
