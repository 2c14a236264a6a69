// ABOUTME: ProviderAdapter interface and base HTTP plumbing shared by the provider adapters.
// ABOUTME: BaseAdapter handles request building and non-2xx mapping for a raw-HTTP adapter; the SDK-backed adapters do not use it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ProviderAdapter sends a single, non-streaming completion request to one LLM
// provider. The kernel never needs streaming or tool-calling, so this is
// narrower than a general-purpose provider SDK.
type ProviderAdapter interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// BaseAdapter provides plain HTTP plumbing for an adapter that talks to a
// provider without an SDK: building requests against a base URL with default
// headers, and mapping non-2xx responses to the ProviderError hierarchy. The
// Anthropic, OpenAI, and Gemini adapters call their SDK clients instead.
type BaseAdapter struct {
	BaseURL        string
	DefaultHeaders map[string]string
	HTTPClient     *http.Client
}

// NewBaseAdapter constructs a BaseAdapter with a default 60s HTTP client.
func NewBaseAdapter(baseURL string) *BaseAdapter {
	return &BaseAdapter{
		BaseURL:        baseURL,
		DefaultHeaders: make(map[string]string),
		HTTPClient:     &http.Client{Timeout: 60 * time.Second},
	}
}

// DoRequest JSON-encodes body, issues a request against b.BaseURL+path with
// the adapter's default headers, and returns the raw response for the caller
// to decode. Non-2xx responses are translated via ErrorFromStatusCode using
// provider as the label.
func (b *BaseAdapter) DoRequest(ctx context.Context, method, path, provider string, body any, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range b.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{ProviderError{SDKError: SDKError{Message: "request timed out", Cause: err}, Provider: provider, Retryable: true}}
		}
		return nil, &UnavailableError{ProviderError{SDKError: SDKError{Message: "request failed", Cause: err}, Provider: provider, Retryable: true}}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrorFromStatusCode(resp.StatusCode, provider, string(respBody))
	}
	return respBody, nil
}
