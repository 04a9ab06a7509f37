package siteqa

import "context"

// TokenCounter counts tokens in text for a specific model.
// Used to report the size of an index rebuild.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
