// ABOUTME: In-process synchronous fan-out of OrchestrationEvents to subscribers (telemetry, spans, SSE bridges).
// ABOUTME: Publish blocks on each subscriber only up to a bounded deadline, so one slow subscriber can't wedge the others.
package eventbus

import (
	"sync"
	"time"

	"github.com/2389-research/swarmkernel/core"
)

// DefaultDispatchDeadline bounds how long Publish waits on a single slow
// subscriber before giving up on it for that dispatch.
const DefaultDispatchDeadline = 200 * time.Millisecond

// Bus is a synchronous in-process fan-out point. Publish blocks the caller
// only up to Deadline per subscriber — a subscriber that can't keep up is
// skipped for that event, not permanently unsubscribed.
type Bus struct {
	Deadline time.Duration

	mu          sync.RWMutex
	subscribers map[int]chan core.OrchestrationEvent
	nextID      int
}

// New builds a Bus with the given per-subscriber dispatch deadline. A zero
// deadline falls back to DefaultDispatchDeadline.
func New(deadline time.Duration) *Bus {
	if deadline <= 0 {
		deadline = DefaultDispatchDeadline
	}
	return &Bus{Deadline: deadline, subscribers: make(map[int]chan core.OrchestrationEvent)}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel has the given buffer (16 when buffer is
// negative, unbuffered when it is 0); a buffer lets a subscriber that's
// merely a little behind avoid being skipped.
func (b *Bus) Subscribe(buffer int) (<-chan core.OrchestrationEvent, func()) {
	if buffer < 0 {
		buffer = 16
	}
	ch := make(chan core.OrchestrationEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsubscribe
}

// Publish fans event out to every current subscriber, copy-on-write so
// Subscribe/unsubscribe during dispatch never races with this snapshot. Each
// subscriber gets up to b.Deadline to accept the event before being skipped
// for this dispatch.
func (b *Bus) Publish(event core.OrchestrationEvent) {
	b.mu.RLock()
	snapshot := make([]chan core.OrchestrationEvent, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		snapshot = append(snapshot, ch)
	}
	b.mu.RUnlock()

	timer := time.NewTimer(b.Deadline)
	defer timer.Stop()
	for _, ch := range snapshot {
		select {
		case ch <- event:
		case <-timer.C:
			// This subscriber missed its window; it stays registered and
			// will receive future events.
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(b.Deadline)
	}
}

// Count reports the current subscriber count, for tests and health checks.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
