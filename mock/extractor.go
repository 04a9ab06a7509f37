package mock

import "github.com/fwojciec/siteqa"

var _ siteqa.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of siteqa.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*siteqa.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*siteqa.ExtractResult, error) {
	return e.ExtractFn(html)
}
