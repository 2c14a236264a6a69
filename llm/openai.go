// ABOUTME: OpenAI Chat Completions provider adapter, backed by openai-go.
// ABOUTME: Single non-streaming completion call mirroring AnthropicAdapter's shape.
package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements ProviderAdapter against OpenAI chat models.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter builds an adapter for the given API key and model
// identifier (e.g. "gpt-4o").
func NewOpenAIAdapter(apiKey, model string) *OpenAIAdapter {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: &c, model: model}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if !opts.Deterministic {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", ErrorFromStatusCode(apiErr.StatusCode, a.Name(), apiErr.Message)
		}
		return "", &UnavailableError{ProviderError{SDKError: SDKError{Message: "openai request failed", Cause: err}, Provider: a.Name(), Retryable: true}}
	}
	if len(resp.Choices) == 0 {
		return "", &InvalidRequestError{ProviderError{SDKError: SDKError{Message: "openai returned no choices"}, Provider: a.Name()}}
	}
	return resp.Choices[0].Message.Content, nil
}
