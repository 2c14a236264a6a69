// ABOUTME: Anthropic Messages API provider adapter, backed by anthropic-sdk-go.
// ABOUTME: Single non-streaming completion call; the kernel has no use for tool-calling or streaming here.
package llm

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter implements ProviderAdapter against Claude models.
type AnthropicAdapter struct {
	client *sdk.Client
	model  string
}

// NewAnthropicAdapter builds an adapter for the given API key and model
// identifier (e.g. "claude-sonnet-4-5").
func NewAnthropicAdapter(apiKey, model string) *AnthropicAdapter {
	c := sdk.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAdapter{client: &c, model: model}
}

func (a *AnthropicAdapter) Name() string { return "anthropic" }

// Complete sends prompt as a single user message and returns the concatenated
// text blocks of the reply.
func (a *AnthropicAdapter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if !opts.Deterministic {
		params.Temperature = sdk.Float(opts.Temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", ErrorFromStatusCode(apiErr.StatusCode, a.Name(), apiErr.Message)
		}
		return "", &UnavailableError{ProviderError{SDKError: SDKError{Message: "anthropic request failed", Cause: err}, Provider: a.Name(), Retryable: true}}
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
