// Package trafilatura extracts the main content and metadata of a page
// using go-trafilatura.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/siteqa"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ siteqa.Extractor = (*Extractor)(nil)

// Extractor is the primary content extractor. It removes navigation,
// footers and other boilerplate and reads the title and description from
// page metadata.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. A page with no
// detectable main content yields an empty ContentHTML, not an error.
func (e *Extractor) Extract(rawHTML string) (*siteqa.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteqa.Errorf(siteqa.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{EnableFallback: true})
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EMALFORMED, "extract content: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		if contentHTML, err = renderNode(result.ContentNode); err != nil {
			return nil, err
		}
	}

	return &siteqa.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		Description: strings.TrimSpace(result.Metadata.Description),
		ContentHTML: contentHTML,
	}, nil
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", siteqa.Errorf(siteqa.EINTERNAL, "render content: %v", err)
	}
	return buf.String(), nil
}
