// Package gemini implements embedding, completion and token counting on top
// of the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"net/http"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
)

// NewClient creates a Gemini API client. An empty baseURL uses the public
// endpoint.
func NewClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "GEMINI_API_KEY not set")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.ECONFIG, "creating gemini client: %v", err)
	}
	return client, nil
}

// classifyError maps a Gemini API error onto an application error code so
// callers can decide whether to retry.
func classifyError(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	code := 0
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	switch {
	case code == http.StatusTooManyRequests:
		return siteqa.RateLimitedf(0, "gemini %s: %v", op, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return siteqa.Errorf(siteqa.ECONFIG, "gemini %s: %v", op, err)
	case code == http.StatusBadRequest || code == http.StatusNotFound:
		return siteqa.Errorf(siteqa.EINVALID, "gemini %s: %v", op, err)
	case code >= 500:
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "gemini %s: %v", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "gemini %s: %v", op, err)
	case code == 0:
		// Transport failures carry no status code.
		return siteqa.Errorf(siteqa.EUNAVAILABLE, "gemini %s: %v", op, err)
	}
	return siteqa.Errorf(siteqa.EINTERNAL, "gemini %s: %v", op, err)
}
