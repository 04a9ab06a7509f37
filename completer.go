package siteqa

import "context"

// CompletionOptions controls a single completion request.
type CompletionOptions struct {
	// MaxTokens bounds the length of the generated output.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// System is an optional system instruction sent alongside the prompt.
	System string
}

// Completer generates text from a prompt with a language model.
//
// Failures are reported with distinguishable codes: ERATELIMITED when the
// service throttles (with a suggested delay when known), EUNAVAILABLE for
// timeouts and outages, EMALFORMED when the response carries no usable text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// Model returns the identifier of the completion model.
	Model() string
}
