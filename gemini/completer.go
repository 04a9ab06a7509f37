package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
)

var _ siteqa.Completer = (*Completer)(nil)

// Completer implements siteqa.Completer using Gemini text generation.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer.
func NewCompleter(client *genai.Client, model string) *Completer {
	return &Completer{client: client, model: model}
}

// Model returns the generation model identifier.
func (c *Completer) Model() string { return c.model }

// Complete sends prompt to the model and returns the generated text.
func (c *Completer) Complete(ctx context.Context, prompt string, opts siteqa.CompletionOptions) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		BuildConfig(opts),
	)
	if err != nil {
		return "", classifyError(ctx, "generate", err)
	}
	if result == nil {
		return "", siteqa.Errorf(siteqa.EMALFORMED, "gemini returned nil result")
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", siteqa.Errorf(siteqa.EMALFORMED, "gemini returned no text")
	}
	return text, nil
}

// BuildConfig returns the GenerateContentConfig for a completion request.
func BuildConfig(opts siteqa.CompletionOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	return config
}
