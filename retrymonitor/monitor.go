// ABOUTME: Background poll loop that discovers failed tasks and re-queues them with bounded exponential backoff.
// ABOUTME: Runs as one goroutine with a time.Ticker and context cancellation, per the kernel's "goroutines are the parallel task primitive" design.
package retrymonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/eventbus"
)

// Store is the subset of store.Store this monitor depends on.
type Store interface {
	ListFailedTasks(since time.Time) ([]core.Task, error)
	GetSwarm(id ulid.ULID) (*core.Swarm, []core.Agent, []core.Task, error)
	UpdateTaskStatus(swarmID, taskID ulid.ULID, newStatus core.TaskStatus, output json.RawMessage, lastError string) error
	IncrementRetry(swarmID, taskID ulid.ULID) (int, error)
	AppendEvent(event core.OrchestrationEvent) error
}

// Config tunes the monitor's cadence and retry policy.
type Config struct {
	PollInterval     time.Duration
	MaxRetries       int
	Backoff          BackoffConfig
	HealthEveryNPoll int // publish a health summary event every N iterations
}

// DefaultConfig matches spec defaults: 10s poll, 3 max retries, health
// summary every 6 iterations (roughly once a minute at the default interval).
func DefaultConfig() Config {
	return Config{
		PollInterval:     10 * time.Second,
		MaxRetries:       3,
		Backoff:          DefaultBackoffConfig(),
		HealthEveryNPoll: 6,
	}
}

// Monitor runs the poll loop.
type Monitor struct {
	Store  Store
	Bus    *eventbus.Bus
	Config Config

	iteration int

	// mu guards retriesSeen/completionsAfterRetry, which are written from
	// both the poll loop and the completion-watching subscriber goroutine.
	mu sync.Mutex
	// retriesSeen/completionsAfterRetry track a sliding window for the
	// retry-success-rate health figure; reset each time it's reported.
	retriesSeen           int
	completionsAfterRetry int
}

// Run blocks until ctx is canceled, polling every Config.PollInterval. It
// responds to cancellation within one poll interval since the ticker select
// checks ctx.Done() on every iteration, never mid-iteration.
func (m *Monitor) Run(ctx context.Context) {
	if m.Config.PollInterval <= 0 {
		m.Config = DefaultConfig()
	}
	if m.Bus != nil {
		unsubscribe := m.watchCompletions()
		defer unsubscribe()
	}
	ticker := time.NewTicker(m.Config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context) {
	failed, err := m.Store.ListFailedTasks(time.Time{})
	if err != nil {
		return // transient store error; next tick tries again
	}

	now := time.Now()
	swarmPausedCache := make(map[ulid.ULID]bool)

	for _, task := range failed {
		if task.RetryCount >= m.Config.MaxRetries {
			continue // terminal: reported in health, not retried
		}
		if m.isPaused(task.SwarmID, swarmPausedCache) {
			continue
		}

		wait := m.Config.Backoff.DelayForRetryCount(task.RetryCount)
		if now.Sub(task.UpdatedAt) < wait {
			continue
		}

		if err := m.Store.UpdateTaskStatus(task.SwarmID, task.ID, core.TaskPending, nil, ""); err != nil {
			continue
		}
		if _, err := m.Store.IncrementRetry(task.SwarmID, task.ID); err != nil {
			continue
		}
		_ = m.Store.AppendEvent(core.OrchestrationEvent{
			SwarmID:   task.SwarmID,
			TaskID:    &task.ID,
			EventType: core.EventRetry,
			Details:   fmt.Sprintf("requeued after %s backoff", wait),
		})
		m.mu.Lock()
		m.retriesSeen++
		m.mu.Unlock()
		if m.Bus != nil {
			m.Bus.Publish(core.OrchestrationEvent{SwarmID: task.SwarmID, TaskID: &task.ID, EventType: core.EventRetry})
		}
	}

	m.iteration++
	if m.Config.HealthEveryNPoll > 0 && m.iteration%m.Config.HealthEveryNPoll == 0 {
		m.publishHealthSummary()
	}
}

func (m *Monitor) isPaused(swarmID ulid.ULID, cache map[ulid.ULID]bool) bool {
	if paused, ok := cache[swarmID]; ok {
		return paused
	}
	swarm, _, _, err := m.Store.GetSwarm(swarmID)
	paused := err == nil && swarm.Status == core.SwarmPaused
	cache[swarmID] = paused
	return paused
}

func (m *Monitor) publishHealthSummary() {
	m.mu.Lock()
	retriesSeen, completions := m.retriesSeen, m.completionsAfterRetry
	m.retriesSeen, m.completionsAfterRetry = 0, 0
	m.mu.Unlock()

	rate := 0.0
	if retriesSeen > 0 {
		rate = float64(completions) / float64(retriesSeen)
	}
	if m.Bus != nil {
		m.Bus.Publish(core.OrchestrationEvent{
			EventType: core.EventRetry,
			Details:   fmt.Sprintf("health: retries=%d retry_success_rate=%.2f", retriesSeen, rate),
		})
	}
}

// watchCompletions subscribes to the bus for task-completion events and
// tracks how many of them followed at least one retry, feeding the
// retry-success-rate health figure. Returns the subscription's unsubscribe
// func.
func (m *Monitor) watchCompletions() func() {
	events, unsubscribe := m.Bus.Subscribe(32)
	go func() {
		for event := range events {
			if event.EventType != core.EventComplete || event.TaskID == nil {
				continue
			}
			m.recordIfRetried(event.SwarmID, *event.TaskID)
		}
	}()
	return unsubscribe
}

// recordIfRetried increments completionsAfterRetry if the given task had
// been retried at least once before completing.
func (m *Monitor) recordIfRetried(swarmID, taskID ulid.ULID) {
	_, _, tasks, err := m.Store.GetSwarm(swarmID)
	if err != nil {
		return
	}
	for _, t := range tasks {
		if t.ID == taskID && t.RetryCount > 0 {
			m.mu.Lock()
			m.completionsAfterRetry++
			m.mu.Unlock()
			return
		}
	}
}
