package mock

import "github.com/fwojciec/siteqa"

var _ siteqa.Converter = (*Converter)(nil)

// Converter is a mock implementation of siteqa.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
