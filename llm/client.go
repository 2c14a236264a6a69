// ABOUTME: Client wires a ProviderAdapter, a CredentialPool, and RetryPolicy into the Completer interface.
// ABOUTME: This is the only concrete Completer the daemon constructs; everything upstream only sees the interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AdapterFactory builds a ProviderAdapter bound to a specific credential.
// Adapters are cheap to construct (they wrap an SDK client), so the Client
// builds a fresh one per call rather than caching one per credential.
type AdapterFactory func(credential string) ProviderAdapter

// Client is the default Completer: it draws a credential from its pool,
// builds an adapter for it, and retries transient failures per policy,
// rotating the credential into cooldown on a RateLimitedError.
type Client struct {
	factory AdapterFactory
	pool    *CredentialPool
	policy  RetryPolicy
}

// NewClient builds a Client. pool may hold a single credential, in which case
// rotation is a no-op and only the cooldown bookkeeping applies.
func NewClient(factory AdapterFactory, pool *CredentialPool, policy RetryPolicy) *Client {
	return &Client{factory: factory, pool: pool, policy: policy}
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.Timeout)*time.Second)
		defer cancel()
	}
	var result string
	err := Retry(ctx, c.policy, func() error {
		cred := c.pool.Take()
		adapter := c.factory(cred)
		text, err := adapter.Complete(ctx, prompt, opts)
		if err != nil {
			var rle *RateLimitedError
			if errors.As(err, &rle) {
				c.pool.MarkRateLimited(cred)
			}
			return err
		}
		result = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completer: %w", err)
	}
	return result, nil
}
