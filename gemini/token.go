package gemini

import (
	"context"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ siteqa.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens locally with the Gemini tokenizer. It is used
// to report indexing cost without calling the API.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a TokenCounter for model.
// Returns ECONFIG if the tokenizer does not support the model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "tokenizer for %q: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in a page's text. Tokenizing is
// local and synchronous, so ctx is only checked before starting.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}

	result, err := tc.tok.CountTokens([]*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}, nil)
	if err != nil {
		return 0, siteqa.Errorf(siteqa.EINTERNAL, "count tokens: %v", err)
	}
	return int(result.TotalTokens), nil
}
