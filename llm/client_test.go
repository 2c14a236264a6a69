package llm

import (
	"context"
	"testing"
	"time"
)

// fakeAdapter lets tests script a sequence of responses without hitting a
// real provider SDK.
type fakeAdapter struct {
	name      string
	responses []func() (string, error)
	calls     int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i]()
}

func TestClientCompleteRetriesThenSucceeds(t *testing.T) {
	adapter := &fakeAdapter{
		name: "fake",
		responses: []func() (string, error){
			func() (string, error) {
				return "", &UnavailableError{ProviderError{SDKError: SDKError{Message: "down"}, Retryable: true}}
			},
			func() (string, error) { return "hello", nil },
		},
	}
	policy := DefaultRetryPolicy()
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 2 * time.Millisecond

	client := NewClient(func(cred string) ProviderAdapter { return adapter }, NewCredentialPool([]string{"k"}, time.Minute), policy)

	got, err := client.Complete(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("Complete() = %q, want %q", got, "hello")
	}
	if adapter.calls != 2 {
		t.Fatalf("adapter.calls = %d, want 2", adapter.calls)
	}
}

func TestClientCompleteRotatesOnRateLimit(t *testing.T) {
	pool := NewCredentialPool([]string{"a", "b"}, time.Hour)
	seen := map[string]int{}

	factory := func(cred string) ProviderAdapter {
		seen[cred]++
		return &fakeAdapter{
			name: "fake",
			responses: []func() (string, error){
				func() (string, error) {
					if cred == "a" {
						return "", &RateLimitedError{ProviderError{SDKError: SDKError{Message: "slow"}, Retryable: true}}
					}
					return "ok", nil
				},
			},
		}
	}
	policy := DefaultRetryPolicy()
	policy.MaxRetries = 2
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 2 * time.Millisecond

	client := NewClient(factory, pool, policy)
	got, err := client.Complete(context.Background(), "hi", Options{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ok" {
		t.Fatalf("Complete() = %q, want %q", got, "ok")
	}
	if seen["a"] == 0 || seen["b"] == 0 {
		t.Fatalf("expected both credentials to be drawn, got %v", seen)
	}
}
