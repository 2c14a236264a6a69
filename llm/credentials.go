// ABOUTME: Round-robin credential rotation with per-credential cooldown on rate limiting.
// ABOUTME: Lets a single provider run against several API keys without the caller ever seeing the rotation.
package llm

import (
	"sync"
	"time"
)

// CredentialPool rotates through a set of API keys for a single provider,
// skipping any credential still in its cooldown window after a RateLimited
// response. Safe for concurrent use by multiple Completer calls.
type CredentialPool struct {
	mu        sync.Mutex
	creds     []string
	next      int
	cooldown  time.Duration
	coolUntil map[string]time.Time
}

// NewCredentialPool builds a pool over creds, each cooling down for the given
// duration after it draws a rate-limit response. A zero cooldown falls back
// to 30s.
func NewCredentialPool(creds []string, cooldown time.Duration) *CredentialPool {
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CredentialPool{
		creds:     creds,
		cooldown:  cooldown,
		coolUntil: make(map[string]time.Time),
	}
}

// Take returns the next credential not currently in cooldown, round-robin
// from the last position handed out. If every credential is cooling down, it
// returns the one with the soonest expiry rather than failing the caller.
func (p *CredentialPool) Take() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.creds) == 0 {
		return ""
	}
	if len(p.creds) == 1 {
		return p.creds[0]
	}

	now := time.Now()
	best := -1
	bestExpiry := time.Time{}
	for i := 0; i < len(p.creds); i++ {
		idx := (p.next + i) % len(p.creds)
		cred := p.creds[idx]
		until, cooling := p.coolUntil[cred]
		if !cooling || !now.Before(until) {
			p.next = (idx + 1) % len(p.creds)
			return cred
		}
		if best == -1 || until.Before(bestExpiry) {
			best = idx
			bestExpiry = until
		}
	}
	p.next = (best + 1) % len(p.creds)
	return p.creds[best]
}

// MarkRateLimited puts cred into cooldown, excluding it from Take until the
// cooldown window elapses.
func (p *CredentialPool) MarkRateLimited(cred string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coolUntil[cred] = time.Now().Add(p.cooldown)
}

// Len reports how many credentials the pool holds.
func (p *CredentialPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}
