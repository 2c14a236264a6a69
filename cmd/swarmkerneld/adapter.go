// ABOUTME: Builds the llm.AdapterFactory for whichever provider the daemon is configured against.
// ABOUTME: Gemini's adapter constructor is fallible and needs a context, so construction failures are deferred into a stub adapter.
package main

import (
	"context"
	"fmt"

	"github.com/2389-research/swarmkernel/llm"
)

// buildAdapterFactory returns an llm.AdapterFactory for the named provider.
// model is fixed at startup; only the credential varies per call, matching
// how llm.Client draws a fresh credential from its pool on every Complete.
func buildAdapterFactory(provider, model string) llm.AdapterFactory {
	switch provider {
	case "openai":
		return func(credential string) llm.ProviderAdapter {
			return llm.NewOpenAIAdapter(credential, model)
		}
	case "gemini":
		return func(credential string) llm.ProviderAdapter {
			adapter, err := llm.NewGeminiAdapter(context.Background(), credential, model)
			if err != nil {
				return failedAdapter{name: "gemini", err: fmt.Errorf("initializing gemini client: %w", err)}
			}
			return adapter
		}
	default:
		return func(credential string) llm.ProviderAdapter {
			return llm.NewAnthropicAdapter(credential, model)
		}
	}
}

// failedAdapter reports the same construction error on every Complete call,
// so a provider outage surfaces through the normal error path instead of a
// panic deep inside llm.Client.
type failedAdapter struct {
	name string
	err  error
}

func (f failedAdapter) Name() string { return f.name }

func (f failedAdapter) Complete(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	return "", f.err
}
