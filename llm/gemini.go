// ABOUTME: Gemini provider adapter, backed by google.golang.org/genai.
// ABOUTME: Single non-streaming GenerateContent call mirroring the other adapters' shape.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiAdapter implements ProviderAdapter against Gemini models.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter builds an adapter for the given API key and model
// identifier (e.g. "gemini-2.5-flash"). A client initialization failure is
// returned here, at construction time.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing gemini client: %w", err)
	}
	return &GeminiAdapter{client: client, model: model}, nil
}

func (a *GeminiAdapter) Name() string { return "gemini" }

func (a *GeminiAdapter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	config := &genai.GenerateContentConfig{}
	if !opts.Deterministic {
		temp := float32(opts.Temperature)
		config.Temperature = &temp
	}
	if opts.MaxTokens > 0 {
		maxTokens := int32(opts.MaxTokens)
		config.MaxOutputTokens = maxTokens
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), config)
	if err != nil {
		return "", &UnavailableError{ProviderError{SDKError: SDKError{Message: "gemini request failed", Cause: err}, Provider: a.Name(), Retryable: true}}
	}
	text := resp.Text()
	if text == "" {
		return "", &InvalidRequestError{ProviderError{SDKError: SDKError{Message: "gemini returned no text"}, Provider: a.Name()}}
	}
	return text, nil
}
