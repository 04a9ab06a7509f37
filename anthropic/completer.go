// Package anthropic implements siteqa.Completer using the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/fwojciec/siteqa"
)

// DefaultMaxTokens is used when the request does not set a limit; the
// Messages API requires one.
const DefaultMaxTokens = 1024

var _ siteqa.Completer = (*Completer)(nil)

// Completer implements siteqa.Completer with Claude models.
type Completer struct {
	client anthropic.Client
	model  string
}

// NewCompleter creates a Completer. An empty baseURL uses the public
// endpoint. SDK-level retries are disabled; callers retry with their own
// policy.
func NewCompleter(apiKey, model, baseURL string) (*Completer, error) {
	if apiKey == "" {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "ANTHROPIC_API_KEY not set")
	}
	if model == "" {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "llm model required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Completer{client: anthropic.NewClient(opts...), model: model}, nil
}

// Model returns the model identifier.
func (c *Completer) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the text of the
// reply.
func (c *Completer) Complete(ctx context.Context, prompt string, opts siteqa.CompletionOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(ctx, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", siteqa.Errorf(siteqa.EMALFORMED, "anthropic returned no text")
	}
	return text, nil
}

func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "anthropic request: %v", err)
	}

	switch code := apiErr.StatusCode; {
	case code == http.StatusTooManyRequests:
		return siteqa.RateLimitedf(retryAfter(apiErr.Response), "anthropic rate limited: %v", err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return siteqa.Errorf(siteqa.ECONFIG, "anthropic authentication: %v", err)
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return siteqa.Errorf(siteqa.EINVALID, "anthropic request rejected: %v", err)
	case code >= 500:
		// 529 overloaded is included here.
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "anthropic unavailable: %v", err)
	default:
		return siteqa.Errorf(siteqa.EINTERNAL, "anthropic request: %v", err)
	}
}

// retryAfter reads the Retry-After header in seconds. Zero means unset.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
