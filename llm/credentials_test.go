package llm

import (
	"testing"
	"time"
)

func TestCredentialPoolRoundRobin(t *testing.T) {
	pool := NewCredentialPool([]string{"a", "b", "c"}, time.Minute)
	got := []string{pool.Take(), pool.Take(), pool.Take(), pool.Take()}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Take() sequence = %v, want %v", got, want)
		}
	}
}

func TestCredentialPoolSkipsCooldown(t *testing.T) {
	pool := NewCredentialPool([]string{"a", "b"}, time.Hour)
	first := pool.Take() // "a"
	pool.MarkRateLimited(first)

	for i := 0; i < 3; i++ {
		got := pool.Take()
		if got == first {
			t.Fatalf("Take() returned cooling-down credential %q", first)
		}
	}
}

func TestCredentialPoolSingleCredentialNeverBlocks(t *testing.T) {
	pool := NewCredentialPool([]string{"only"}, time.Hour)
	pool.MarkRateLimited("only")
	if got := pool.Take(); got != "only" {
		t.Fatalf("Take() = %q, want the sole credential even while cooling down", got)
	}
}
